package invitationsrv

import (
	"github.com/karua/hostcore/pkg/iam/invitation"
	"github.com/karua/hostcore/pkg/notifx"
)

var inviteTemplate = notifx.Template{
	Subject: `You're invited to {{if .HostName}}{{.HostName}}{{else}}Hostcore{{end}}`,
	Text: `Hello {{.Name}},

An account was created for you{{if .HostName}} at {{.HostName}}{{end}}.
Username: {{.Username}}
Secure code: {{.Code}}
{{if .ExpiresIn}}The code is valid for {{.ExpiresIn}}.
{{end}}{{if .LoginURL}}Choose your password at {{.LoginURL}}
{{end}}`,
	HTML: `<p>Hello {{.Name}},</p>
<p>An account was created for you{{if .HostName}} at <strong>{{.HostName}}</strong>{{end}}.</p>
<p>Username: <strong>{{.Username}}</strong><br>Secure code: <strong>{{.Code}}</strong></p>
{{if .ExpiresIn}}<p>The code is valid for {{.ExpiresIn}}.</p>{{end}}
{{if .LoginURL}}<p><a href="{{.LoginURL}}">Choose your password</a></p>{{end}}`,
}

// TemplateRegistrar is satisfied by *notifx.Client.
type TemplateRegistrar interface {
	RegisterTemplate(name string, t notifx.Template) error
}

// RegisterTemplates installs the invite email.
func RegisterTemplates(r TemplateRegistrar) error {
	return r.RegisterTemplate(invitation.TemplateName, inviteTemplate)
}
