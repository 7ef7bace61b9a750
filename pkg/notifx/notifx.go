// Package notifx sends transactional email through a pluggable provider.
package notifx

import (
	"context"
)

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error
}

// Client validates messages, fills in the sender and renders templates
// before handing off to the provider.
type Client struct {
	provider  EmailSender
	from      string
	templates *TemplateRegistry
}

// NewClient creates a client. from is used when a message has no sender.
func NewClient(provider EmailSender, from string) *Client {
	return &Client{
		provider:  provider,
		from:      from,
		templates: NewTemplateRegistry(),
	}
}

var _ EmailSender = (*Client)(nil)

func (c *Client) SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error {
	if msg.From == "" {
		msg.From = c.from
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.provider.SendEmail(ctx, msg, opts...)
}

// RegisterTemplate parses and stores a named template for later use.
func (c *Client) RegisterTemplate(name string, t Template) error {
	return c.templates.Register(name, t)
}

// SendTemplatedEmail renders a template into msg and sends it. The template
// name is added as a "template" tag.
func (c *Client) SendTemplatedEmail(ctx context.Context, templateName string, data any, msg EmailMessage, opts ...Option) error {
	rendered, err := c.templates.Render(templateName, data)
	if err != nil {
		return err
	}

	msg.Subject = rendered.Subject
	msg.TextBody = rendered.TextBody
	msg.HTMLBody = rendered.HTMLBody
	opts = append(opts, WithTags(map[string]string{"template": templateName}))
	return c.SendEmail(ctx, msg, opts...)
}
