package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/karua/hostcore/pkg/iam"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
)

const (
	DefaultAccessTokenTTL = time.Hour
	defaultIssuer         = "hostcore"
)

// JWTService signs and verifies HS256 session tokens. The key is fixed at
// construction and never changes afterwards.
type JWTService struct {
	secretKey      []byte
	accessTokenTTL time.Duration
	issuer         string
	now            func() time.Time
}

// JWTOption customises a JWTService.
type JWTOption func(*JWTService)

// WithClock replaces time.Now for issuing and validating.
func WithClock(now func() time.Time) JWTOption {
	return func(j *JWTService) { j.now = now }
}

func NewJWTService(secretKey string, accessTokenTTL time.Duration, issuer string, opts ...JWTOption) *JWTService {
	if accessTokenTTL <= 0 {
		accessTokenTTL = DefaultAccessTokenTTL
	}
	if issuer == "" {
		issuer = defaultIssuer
	}

	j := &JWTService{
		secretKey:      []byte(secretKey),
		accessTokenTTL: accessTokenTTL,
		issuer:         issuer,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// JWTClaims is the wire form of a session token. IssuedAtMs repeats iat in
// milliseconds; revocation cutoffs compare on it.
type JWTClaims struct {
	Email      string          `json:"email"`
	Username   string          `json:"username"`
	Role       kernel.Role     `json:"role"`
	TenantID   kernel.TenantID `json:"hostId"`
	IssuedAtMs int64           `json:"iat_ms,omitempty"`
	jwt.RegisteredClaims
}

// TTL returns the lifetime of issued tokens.
func (j *JWTService) TTL() time.Duration {
	return j.accessTokenTTL
}

// Issue signs a token for id and returns it with its expiry.
func (j *JWTService) Issue(id Identity) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.accessTokenTTL)

	claims := JWTClaims{
		Email:      id.Email,
		Username:   id.Username,
		Role:       id.Role,
		TenantID:   id.TenantID,
		IssuedAtMs: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   id.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry. Every failure is
// reported as the same invalid-token error; the cause is only logged.
func (j *JWTService) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		logx.WithError(err).Debug("token rejected")
		return nil, iam.ErrInvalidToken()
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, iam.ErrInvalidToken()
	}

	id := Identity{
		UserID:   kernel.UserID(claims.Subject),
		TenantID: claims.TenantID,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     claims.Role,
	}
	if id.UserID.IsEmpty() || id.TenantID.IsEmpty() || !id.Role.IsValid() {
		logx.Debug("token rejected: incomplete claims")
		return nil, iam.ErrInvalidToken()
	}

	out := &TokenClaims{Identity: id, ExpiresAt: claims.ExpiresAt.Time}
	switch {
	case claims.IssuedAtMs > 0:
		out.IssuedAt = time.UnixMilli(claims.IssuedAtMs)
	case claims.IssuedAt != nil:
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
