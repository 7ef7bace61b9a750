// Package customer holds the guests of a host and the shared nationality
// catalog.
package customer

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karua/hostcore/pkg/document"
	"github.com/karua/hostcore/pkg/kernel"
)

const (
	maxTextLength     = 255
	maxDocumentLength = 50
	maxContactLength  = 100
)

type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderNotInformed Gender = "not_informed"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderNotInformed:
		return true
	}
	return false
}

type DocumentType string

const (
	DocumentCPF        DocumentType = "cpf"
	DocumentRG         DocumentType = "rg"
	DocumentCNH        DocumentType = "cnh"
	DocumentPassport   DocumentType = "passport"
	DocumentDNI        DocumentType = "dni"
	DocumentCedula     DocumentType = "cedula"
	DocumentRUC        DocumentType = "ruc"
	DocumentCI         DocumentType = "ci"
	DocumentMercosulID DocumentType = "mercosul_id"
	DocumentOther      DocumentType = "other"
)

var documentTypes = map[DocumentType]bool{
	DocumentCPF: true, DocumentRG: true, DocumentCNH: true, DocumentPassport: true, DocumentDNI: true,
	DocumentCedula: true, DocumentRUC: true, DocumentCI: true, DocumentMercosulID: true, DocumentOther: true,
}

type ContactType string

const (
	ContactPhone    ContactType = "phone"
	ContactMobile   ContactType = "mobile"
	ContactWhatsApp ContactType = "whatsapp"
	ContactEmail    ContactType = "email"
	ContactOther    ContactType = "other"
)

var contactTypes = map[ContactType]bool{
	ContactPhone: true, ContactMobile: true, ContactWhatsApp: true, ContactEmail: true, ContactOther: true,
}

// ============================================================================
// Entities
// ============================================================================

type Customer struct {
	ID            string     `db:"id" json:"id"`
	TenantID      kernel.TenantID `db:"host_id" json:"hostId"`
	Name          string          `db:"name" json:"name"`
	Email         string          `db:"email" json:"email"`
	BirthDate     *kernel.Date    `db:"birth_date" json:"birthDate,omitempty"`
	Gender        *Gender         `db:"gender" json:"gender,omitempty"`
	NationalityID *string         `db:"nationality_id" json:"nationalityId,omitempty"`
	IsActive      bool            `db:"is_active" json:"isActive"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`

	Documents []Document `db:"-" json:"documents"`
	Contacts  []Contact  `db:"-" json:"contacts"`
}

type Document struct {
	ID             string       `db:"id" json:"id"`
	CustomerID     string       `db:"customer_id" json:"-"`
	Number         string       `db:"document" json:"document"`
	Type           DocumentType `db:"type" json:"type"`
	IssuingCountry *string      `db:"issuing_country" json:"issuingCountry,omitempty"`
	IsPrimary      bool         `db:"is_primary" json:"isPrimary"`
}

type Contact struct {
	ID         string      `db:"id" json:"id"`
	CustomerID string      `db:"customer_id" json:"-"`
	Value      string      `db:"value" json:"value"`
	Type       ContactType `db:"type" json:"type"`
	IsPrimary  bool        `db:"is_primary" json:"isPrimary"`
}

type Nationality struct {
	ID      string `db:"id" json:"id"`
	Country string `db:"country" json:"country"`
}

// ============================================================================
// Input
// ============================================================================

// Input is the create body and, with nil fields left alone, the patch
// body. A non-nil Documents or Contacts replaces the whole list.
type Input struct {
	Name          *string          `json:"name,omitempty"`
	Email         *string          `json:"email,omitempty"`
	BirthDate     *kernel.Date     `json:"birthDate,omitempty"`
	Gender        *Gender          `json:"gender,omitempty"`
	NationalityID *string          `json:"nationalityId,omitempty"`
	IsActive      *bool            `json:"isActive,omitempty"`
	Documents     *[]DocumentInput `json:"documents,omitempty"`
	Contacts      *[]ContactInput  `json:"contacts,omitempty"`
}

type DocumentInput struct {
	Number         string       `json:"document"`
	Type           DocumentType `json:"type"`
	IssuingCountry *string      `json:"issuingCountry,omitempty"`
	IsPrimary      bool         `json:"isPrimary"`
}

type ContactInput struct {
	Value     string      `json:"value"`
	Type      ContactType `json:"type"`
	IsPrimary bool        `json:"isPrimary"`
}

func New(tenantID kernel.TenantID, in Input, now time.Time) (*Customer, error) {
	if in.Name == nil {
		return nil, ErrInvalidData("name")
	}
	if in.Email == nil {
		return nil, ErrInvalidData("email")
	}
	c := Customer{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		IsActive:  true,
		CreatedAt: now,
		Documents: []Document{},
		Contacts:  []Contact{},
	}
	next, err := c.Apply(in, now)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// Apply returns a validated copy with in applied. CPF documents are checked
// and stored as digits only.
func (c Customer) Apply(in Input, now time.Time) (Customer, error) {
	next := c
	if in.Name != nil {
		next.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		next.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.BirthDate != nil {
		next.BirthDate = in.BirthDate
	}
	if in.Gender != nil {
		next.Gender = in.Gender
	}
	if in.NationalityID != nil {
		next.NationalityID = in.NationalityID
	}
	if in.IsActive != nil {
		next.IsActive = *in.IsActive
	}

	if next.Name == "" || len(next.Name) > maxTextLength {
		return c, ErrInvalidData("name")
	}
	if !isEmail(next.Email) {
		return c, ErrInvalidData("email")
	}
	if next.BirthDate != nil && next.BirthDate.After(now) {
		return c, ErrInvalidData("birthDate")
	}
	if next.Gender != nil && !next.Gender.IsValid() {
		return c, ErrInvalidData("gender")
	}
	if next.NationalityID != nil && !kernel.ParseUUID(*next.NationalityID) {
		return c, ErrInvalidNationality()
	}

	if in.Documents != nil {
		docs, err := buildDocuments(next.ID, *in.Documents)
		if err != nil {
			return c, err
		}
		next.Documents = docs
	}
	if in.Contacts != nil {
		contacts, err := buildContacts(next.ID, *in.Contacts)
		if err != nil {
			return c, err
		}
		next.Contacts = contacts
	}

	next.UpdatedAt = now
	return next, nil
}

func buildDocuments(customerID string, in []DocumentInput) ([]Document, error) {
	out := make([]Document, 0, len(in))
	primaries := 0
	for _, d := range in {
		number := strings.TrimSpace(d.Number)
		if !documentTypes[d.Type] {
			return nil, ErrInvalidData("documents.type")
		}
		if d.Type == DocumentCPF {
			cpf, err := document.NormalizeCPF(number)
			if err != nil {
				return nil, err
			}
			number = cpf
		}
		if number == "" || len(number) > maxDocumentLength {
			return nil, ErrInvalidData("documents.document")
		}
		if d.IssuingCountry != nil && len(*d.IssuingCountry) > 3 {
			return nil, ErrInvalidData("documents.issuingCountry")
		}
		if d.IsPrimary {
			primaries++
		}
		out = append(out, Document{
			ID:             uuid.NewString(),
			CustomerID:     customerID,
			Number:         number,
			Type:           d.Type,
			IssuingCountry: d.IssuingCountry,
			IsPrimary:      d.IsPrimary,
		})
	}
	if primaries > 1 {
		return nil, ErrInvalidData("documents.isPrimary")
	}
	return out, nil
}

func buildContacts(customerID string, in []ContactInput) ([]Contact, error) {
	out := make([]Contact, 0, len(in))
	primaries := 0
	for _, ct := range in {
		value := strings.TrimSpace(ct.Value)
		if !contactTypes[ct.Type] {
			return nil, ErrInvalidData("contacts.type")
		}
		if value == "" || len(value) > maxContactLength {
			return nil, ErrInvalidData("contacts.value")
		}
		if ct.IsPrimary {
			primaries++
		}
		out = append(out, Contact{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			Value:      value,
			Type:       ct.Type,
			IsPrimary:  ct.IsPrimary,
		})
	}
	if primaries > 1 {
		return nil, ErrInvalidData("contacts.isPrimary")
	}
	return out, nil
}

func isEmail(s string) bool {
	if s == "" || len(s) > maxTextLength {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
