// Package notifxconsole is the development email provider: messages go to
// the log instead of a mail server.
package notifxconsole

import (
	"context"
	"strings"

	"github.com/karua/hostcore/pkg/logx"
	"github.com/karua/hostcore/pkg/notifx"
)

type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

var _ notifx.EmailSender = (*ConsoleProvider)(nil)

// SendEmail logs the envelope at info and the bodies at debug.
func (p *ConsoleProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	so := notifx.ApplySendOptions(opts)

	entry := logx.WithContext(ctx).WithFields(logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	})
	if tmpl, ok := so.Tags["template"]; ok {
		entry = entry.WithField("template", tmpl)
	}
	entry.Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}
	return nil
}
