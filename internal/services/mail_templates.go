package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"strings"
	texttemplate "text/template"

	"gopkg.in/yaml.v3"
)

// MailTemplate is one subject/text/html triple. Fields left empty in an
// override file keep the built-in value.
type MailTemplate struct {
	Subject string `yaml:"subject"`
	Text    string `yaml:"text"`
	HTML    string `yaml:"html"`
}

type MailTemplates struct {
	DrawStarted   MailTemplate `yaml:"draw_started"`
	DrawCancelled MailTemplate `yaml:"draw_cancelled"`
}

func DefaultMailTemplates() MailTemplates {
	return MailTemplates{
		DrawStarted: MailTemplate{
			Subject: `Secret Santa: {{.EventTitle}}`,
			Text: `Hi {{.RecipientName}},

The Secret Santa draw for {{.EventTitle}} has started.
You are the Secret Santa of {{.DrawnDisplayName}}.
{{- if .Budget}}
Budget: {{.Budget}}{{end}}
{{- if .Description}}
{{.Description}}{{end}}
{{- if .EventURL}}

{{.EventURL}}{{end}}
`,
			HTML: `<p>Hi {{.RecipientName}},</p>
<p>The Secret Santa draw for <strong>{{.EventTitle}}</strong> has started.</p>
<p>You are the Secret Santa of <strong>{{.DrawnDisplayName}}</strong>.</p>
{{if .Budget}}<p>Budget: {{.Budget}}</p>{{end}}
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .EventURL}}<p><a href="{{.EventURL}}">Open the event</a></p>{{end}}
`,
		},
		DrawCancelled: MailTemplate{
			Subject: `Secret Santa cancelled: {{.EventTitle}}`,
			Text: `Hi {{.RecipientName}},

The Secret Santa draw for {{.EventTitle}} has been cancelled. Your previous draw no longer applies.
{{- if .EventURL}}

{{.EventURL}}{{end}}
`,
			HTML: `<p>Hi {{.RecipientName}},</p>
<p>The Secret Santa draw for <strong>{{.EventTitle}}</strong> has been cancelled. Your previous draw no longer applies.</p>
{{if .EventURL}}<p><a href="{{.EventURL}}">Open the event</a></p>{{end}}
`,
		},
	}
}

// LoadMailTemplates returns the built-in templates overlaid with path, when set.
func LoadMailTemplates(path string) (MailTemplates, error) {
	out := DefaultMailTemplates()
	path = strings.TrimSpace(path)
	if path == "" {
		return out, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read mail templates: %w", err)
	}
	var override MailTemplates
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return out, fmt.Errorf("parse mail templates: %w", err)
	}
	out.DrawStarted = out.DrawStarted.merge(override.DrawStarted)
	out.DrawCancelled = out.DrawCancelled.merge(override.DrawCancelled)
	return out, nil
}

func (t MailTemplate) merge(o MailTemplate) MailTemplate {
	if strings.TrimSpace(o.Subject) != "" {
		t.Subject = o.Subject
	}
	if strings.TrimSpace(o.Text) != "" {
		t.Text = o.Text
	}
	if strings.TrimSpace(o.HTML) != "" {
		t.HTML = o.HTML
	}
	return t
}

type compiledMailTemplate struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

type renderedMail struct {
	Subject string
	Text    string
	HTML    string
}

func compileMailTemplate(name string, t MailTemplate) (*compiledMailTemplate, error) {
	subject, err := texttemplate.New(name + ".subject").Option("missingkey=zero").Parse(t.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s subject: %w", name, err)
	}
	text, err := texttemplate.New(name + ".text").Option("missingkey=zero").Parse(t.Text)
	if err != nil {
		return nil, fmt.Errorf("%s text: %w", name, err)
	}
	html, err := htmltemplate.New(name + ".html").Option("missingkey=zero").Parse(t.HTML)
	if err != nil {
		return nil, fmt.Errorf("%s html: %w", name, err)
	}
	return &compiledMailTemplate{subject: subject, text: text, html: html}, nil
}

func (c *compiledMailTemplate) render(data any) (renderedMail, error) {
	var subject, text, html bytes.Buffer
	if err := c.subject.Execute(&subject, data); err != nil {
		return renderedMail{}, err
	}
	if err := c.text.Execute(&text, data); err != nil {
		return renderedMail{}, err
	}
	if err := c.html.Execute(&html, data); err != nil {
		return renderedMail{}, err
	}
	return renderedMail{
		// subjects are single line
		Subject: strings.Join(strings.Fields(subject.String()), " "),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
