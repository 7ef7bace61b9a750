package notifx

import (
	"bytes"
	htmltemplate "html/template"
	"sync"
	texttemplate "text/template"
)

// Template is a named email: subject and text are plain text templates,
// HTML is escaped.
type Template struct {
	Subject string
	Text    string
	HTML    string
}

type compiledTemplate struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

// Rendered is the output of a template.
type Rendered struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// TemplateRegistry stores and renders named templates.
type TemplateRegistry struct {
	templates map[string]compiledTemplate
	mu        sync.RWMutex
}

func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{templates: make(map[string]compiledTemplate)}
}

// Register parses and stores a template by name, replacing any previous one.
func (r *TemplateRegistry) Register(name string, t Template) error {
	var (
		ct  compiledTemplate
		err error
	)
	parseErr := func(err error) error {
		return ErrRegistry.NewWithCause(CodeTemplateParse, err).WithDetail("template", name)
	}

	if ct.subject, err = texttemplate.New(name + ".subject").Parse(t.Subject); err != nil {
		return parseErr(err)
	}
	if t.Text != "" {
		if ct.text, err = texttemplate.New(name + ".text").Parse(t.Text); err != nil {
			return parseErr(err)
		}
	}
	if t.HTML != "" {
		if ct.html, err = htmltemplate.New(name + ".html").Parse(t.HTML); err != nil {
			return parseErr(err)
		}
	}

	r.mu.Lock()
	r.templates[name] = ct
	r.mu.Unlock()
	return nil
}

// Render executes a named template with the given data.
func (r *TemplateRegistry) Render(name string, data any) (Rendered, error) {
	r.mu.RLock()
	ct, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return Rendered{}, ErrRegistry.New(CodeTemplateNotFound).WithDetail("template", name)
	}

	var out Rendered
	var buf bytes.Buffer
	renderErr := func(err error) error {
		return ErrRegistry.NewWithCause(CodeTemplateRender, err).WithDetail("template", name)
	}

	if err := ct.subject.Execute(&buf, data); err != nil {
		return Rendered{}, renderErr(err)
	}
	out.Subject = buf.String()

	if ct.text != nil {
		buf.Reset()
		if err := ct.text.Execute(&buf, data); err != nil {
			return Rendered{}, renderErr(err)
		}
		out.TextBody = buf.String()
	}
	if ct.html != nil {
		buf.Reset()
		if err := ct.html.Execute(&buf, data); err != nil {
			return Rendered{}, renderErr(err)
		}
		out.HTMLBody = buf.String()
	}
	return out, nil
}
