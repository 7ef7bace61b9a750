package authinfra

import (
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam/user"
	"golang.org/x/crypto/bcrypt"
)

// BcryptPasswordService hashes passwords with bcrypt.
type BcryptPasswordService struct {
	cost int
}

func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordService{cost: cost}
}

var _ user.PasswordHasher = (*BcryptPasswordService)(nil)

func (s *BcryptPasswordService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}
	return string(hash), nil
}

// Compare runs in constant time with respect to the password.
func (s *BcryptPasswordService) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Cost is the bcrypt work factor; invite codes are hashed with the same one.
func (s *BcryptPasswordService) Cost() int {
	return s.cost
}
