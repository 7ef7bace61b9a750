package notifxses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/notifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendEmailBuildsInput(t *testing.T) {
	client := &fakeSES{}
	p := NewSESProvider(client, "no-reply@hostcore.app")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"ana@pousada.com"},
		ReplyTo:  "suporte@hostcore.app",
		Subject:  "Convite",
		TextBody: "codigo",
		HTMLBody: "<b>codigo</b>",
	}, notifx.WithConfigID("transactional"), notifx.WithTags(map[string]string{"template": "user_invite"}))
	require.NoError(t, err)

	in := client.input
	require.NotNil(t, in)
	assert.Equal(t, "no-reply@hostcore.app", aws.ToString(in.Source))
	assert.Equal(t, []string{"ana@pousada.com"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"suporte@hostcore.app"}, in.ReplyToAddresses)
	assert.Equal(t, "Convite", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "codigo", aws.ToString(in.Message.Body.Text.Data))
	assert.Equal(t, "<b>codigo</b>", aws.ToString(in.Message.Body.Html.Data))
	assert.Equal(t, "transactional", aws.ToString(in.ConfigurationSetName))
	require.Len(t, in.Tags, 1)
	assert.Equal(t, "user_invite", aws.ToString(in.Tags[0].Value))
}

func TestSendEmailWrapsFailure(t *testing.T) {
	p := NewSESProvider(&fakeSES{err: errors.New("throttled")}, "no-reply@hostcore.app")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@b.com"}, Subject: "s", TextBody: "t"})
	assert.True(t, errx.IsCode(err, CodeSendFailed))
}
