// Package host models the tenants of the platform: the hotels and inns that
// own users, accommodations and customers.
package host

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karua/hostcore/pkg/document"
	"github.com/karua/hostcore/pkg/kernel"
)

const maxTextLength = 255

// Host is a tenant. Its ID is the tenant id carried by every token.
type Host struct {
	ID          kernel.TenantID `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	CNPJ        *string         `db:"cnpj" json:"cnpj,omitempty"`
	CEP         *string         `db:"cep" json:"cep,omitempty"`
	Street      *string         `db:"street" json:"street,omitempty"`
	Number      *string         `db:"number" json:"number,omitempty"`
	State       *string         `db:"state" json:"state,omitempty"`
	Phone       *string         `db:"phone" json:"phone,omitempty"`
	Email       *string         `db:"email" json:"email,omitempty"`
	IsActive    bool            `db:"is_active" json:"isActive"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`

	LegalRepresentatives []LegalRepresentative `db:"-" json:"legalRepresentatives"`
}

type LegalRepresentative struct {
	ID        string          `db:"id" json:"id"`
	HostID    kernel.TenantID `db:"host_id" json:"hostId"`
	Name      string          `db:"name" json:"name"`
	Email     string          `db:"email" json:"email"`
	CPF       string          `db:"cpf" json:"cpf"`
	Phone     *string         `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// ============================================================================
// Construction
// ============================================================================

type CreateHostRequest struct {
	Name                string                      `json:"name"`
	Description         *string                     `json:"description,omitempty"`
	CNPJ                *string                     `json:"cnpj,omitempty"`
	CEP                 *string                     `json:"cep,omitempty"`
	Street              *string                     `json:"street,omitempty"`
	Number              *string                     `json:"number,omitempty"`
	State               *string                     `json:"state,omitempty"`
	Phone               *string                     `json:"phone,omitempty"`
	Email               *string                     `json:"email,omitempty"`
	IsActive            *bool                       `json:"isActive,omitempty"`
	LegalRepresentative CreateRepresentativeRequest `json:"legalRepresentative"`
}

type CreateRepresentativeRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	CPF   string  `json:"cpf"`
	Phone *string `json:"phone,omitempty"`
}

// NewHost validates req and returns a host with its first legal
// representative. Documents are stored as digits only.
func NewHost(req CreateHostRequest, now time.Time) (*Host, error) {
	h := &Host{
		ID:          kernel.NewTenantID(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CEP:         req.CEP,
		Street:      req.Street,
		Number:      req.Number,
		State:       upper(req.State),
		Phone:       req.Phone,
		Email:       lower(req.Email),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		h.IsActive = *req.IsActive
	}

	if req.CNPJ != nil && strings.TrimSpace(*req.CNPJ) != "" {
		cnpj, err := document.NormalizeCNPJ(*req.CNPJ)
		if err != nil {
			return nil, err
		}
		h.CNPJ = &cnpj
	}

	rep := req.LegalRepresentative
	cpf, err := document.NormalizeCPF(rep.CPF)
	if err != nil {
		return nil, err
	}
	h.LegalRepresentatives = []LegalRepresentative{{
		ID:        uuid.NewString(),
		HostID:    h.ID,
		Name:      strings.TrimSpace(rep.Name),
		Email:     strings.ToLower(strings.TrimSpace(rep.Email)),
		CPF:       cpf,
		Phone:     rep.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Host) validate() error {
	if h.Name == "" || len(h.Name) > maxTextLength {
		return ErrInvalidHostData().WithDetail("field", "name")
	}
	if h.CEP != nil && !between(len(*h.CEP), 8, 10) {
		return ErrInvalidHostData().WithDetail("field", "cep")
	}
	if h.Street != nil && !between(len(*h.Street), 1, maxTextLength) {
		return ErrInvalidHostData().WithDetail("field", "street")
	}
	if h.Number != nil && !between(len(*h.Number), 1, 20) {
		return ErrInvalidHostData().WithDetail("field", "number")
	}
	if h.State != nil && len(*h.State) != 2 {
		return ErrInvalidHostData().WithDetail("field", "state")
	}
	if h.Phone != nil && !between(len(*h.Phone), 1, 20) {
		return ErrInvalidHostData().WithDetail("field", "phone")
	}
	if h.Email != nil && !isEmail(*h.Email) {
		return ErrInvalidHostData().WithDetail("field", "email")
	}
	for _, rep := range h.LegalRepresentatives {
		if rep.Name == "" || len(rep.Name) > maxTextLength {
			return ErrInvalidHostData().WithDetail("field", "legalRepresentative.name")
		}
		if !isEmail(rep.Email) {
			return ErrInvalidHostData().WithDetail("field", "legalRepresentative.email")
		}
		if rep.Phone != nil && !between(len(*rep.Phone), 1, 20) {
			return ErrInvalidHostData().WithDetail("field", "legalRepresentative.phone")
		}
	}
	return nil
}

// ============================================================================
// Patch
// ============================================================================

// Patch holds the editable contact and address fields. Name and CNPJ are
// fixed once the host exists.
type Patch struct {
	Description          *string               `json:"description,omitempty"`
	CEP                  *string               `json:"cep,omitempty"`
	Street               *string               `json:"street,omitempty"`
	Number               *string               `json:"number,omitempty"`
	State                *string               `json:"state,omitempty"`
	Phone                *string               `json:"phone,omitempty"`
	Email                *string               `json:"email,omitempty"`
	LegalRepresentatives []RepresentativePatch `json:"legalRepresentatives,omitempty"`
}

// RepresentativePatch updates the contact data of an existing representative.
type RepresentativePatch struct {
	ID    string  `json:"id"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Apply returns a validated copy of h with p applied. A representative id
// that does not belong to h is rejected.
func (h Host) Apply(p Patch, now time.Time) (Host, error) {
	next := h
	set := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	set(&next.Description, p.Description)
	set(&next.CEP, p.CEP)
	set(&next.Street, p.Street)
	set(&next.Number, p.Number)
	set(&next.State, upper(p.State))
	set(&next.Phone, p.Phone)
	set(&next.Email, lower(p.Email))

	next.LegalRepresentatives = append([]LegalRepresentative(nil), h.LegalRepresentatives...)
	for _, rp := range p.LegalRepresentatives {
		i := next.representativeIndex(rp.ID)
		if i < 0 {
			return h, ErrRepresentativeNotFound().WithDetail("legal_representative_id", rp.ID)
		}
		rep := &next.LegalRepresentatives[i]
		if rp.Email != nil {
			rep.Email = strings.ToLower(strings.TrimSpace(*rp.Email))
		}
		if rp.Phone != nil {
			rep.Phone = rp.Phone
		}
		rep.UpdatedAt = now
	}

	if err := next.validate(); err != nil {
		return h, err
	}
	next.UpdatedAt = now
	return next, nil
}

func (h *Host) representativeIndex(id string) int {
	for i, rep := range h.LegalRepresentatives {
		if rep.ID == id {
			return i
		}
	}
	return -1
}

// ============================================================================
// Helpers
// ============================================================================

func between(n, lo, hi int) bool { return n >= lo && n <= hi }

func isEmail(s string) bool {
	if s == "" || len(s) > maxTextLength {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func upper(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	return &v
}

func lower(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	return &v
}
