package notifx_test

import (
	"context"
	"testing"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/notifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	msgs []notifx.EmailMessage
	opts []notifx.SendOptions
}

func (s *captureSender) SendEmail(_ context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	s.msgs = append(s.msgs, msg)
	s.opts = append(s.opts, notifx.ApplySendOptions(opts))
	return nil
}

func TestSendTemplatedEmail(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "Hostcore <no-reply@hostcore.app>")

	require.NoError(t, client.RegisterTemplate("welcome", notifx.Template{
		Subject: "Welcome to {{.Host}}",
		Text:    "Hi {{.Name}}",
		HTML:    "<p>Hi {{.Name}}</p>",
	}))

	err := client.SendTemplatedEmail(context.Background(), "welcome",
		map[string]string{"Host": "Pousada Sol", "Name": "<Ana>"},
		notifx.EmailMessage{To: []string{"ana@pousada.com"}})
	require.NoError(t, err)

	require.Len(t, sender.msgs, 1)
	msg := sender.msgs[0]
	assert.Equal(t, "Hostcore <no-reply@hostcore.app>", msg.From)
	assert.Equal(t, "Welcome to Pousada Sol", msg.Subject)
	assert.Equal(t, "Hi <Ana>", msg.TextBody)
	assert.Equal(t, "<p>Hi &lt;Ana&gt;</p>", msg.HTMLBody)
	assert.Equal(t, "welcome", sender.opts[0].Tags["template"])
}

func TestSendEmailValidates(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "no-reply@hostcore.app")

	err := client.SendEmail(context.Background(), notifx.EmailMessage{Subject: "x", TextBody: "y"})
	assert.True(t, errx.IsCode(err, notifx.CodeInvalidMessage))

	err = client.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@b.com"}, TextBody: "y"})
	assert.True(t, errx.IsCode(err, notifx.CodeInvalidMessage))

	err = client.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@b.com"}, Subject: "x"})
	assert.True(t, errx.IsCode(err, notifx.CodeInvalidMessage))

	assert.Empty(t, sender.msgs)
}

func TestTemplateErrors(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "")

	err := client.RegisterTemplate("broken", notifx.Template{Subject: "{{.Oops"})
	assert.True(t, errx.IsCode(err, notifx.CodeTemplateParse))

	err = client.SendTemplatedEmail(context.Background(), "missing", nil, notifx.EmailMessage{To: []string{"a@b.com"}})
	assert.True(t, errx.IsCode(err, notifx.CodeTemplateNotFound))
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "a@b.com", notifx.FormatAddress("", "a@b.com"))
	assert.Equal(t, "Hostcore <a@b.com>", notifx.FormatAddress("Hostcore", "a@b.com"))
}
