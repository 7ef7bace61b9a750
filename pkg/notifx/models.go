package notifx

import "strings"

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body,omitempty"`
	HTMLBody string   `json:"html_body,omitempty"`
}

// Validate checks the fields every provider needs.
func (m EmailMessage) Validate() error {
	if len(m.To) == 0 {
		return ErrInvalidMessage("no recipients")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return ErrInvalidMessage("empty recipient")
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrInvalidMessage("empty subject")
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return ErrInvalidMessage("empty body")
	}
	return nil
}

// FormatAddress renders "Name <address>", or the bare address without a name.
func FormatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return name + " <" + address + ">"
}
