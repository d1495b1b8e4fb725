package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

var funcMap = template.FuncMap{
	"markdown": func(content string) template.HTML {
		var buf strings.Builder
		if err := goldmark.Convert([]byte(content), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(content))
		}
		return template.HTML(buf.String())
	},
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
}

var templates = template.Must(template.New("").Funcs(funcMap).Parse(`
{{define "project_assignment"}}<p>Hello {{.Recipient}},</p>
<p>You have been added to the project <strong>{{.Title}}</strong> by {{.Actor}}.</p>
{{if .Description}}<div>{{markdown .Description}}</div>{{end}}
<p><a href="{{.Link}}">Open your projects</a></p>{{end}}

{{define "event_created"}}<p>Hello {{.Recipient}},</p>
<p>{{.Actor}} scheduled <strong>{{.Title}}</strong> on {{date .Date}}{{if .Time}} at {{.Time}}{{end}}.</p>
{{if .Description}}<div>{{markdown .Description}}</div>{{end}}
<p><a href="{{.Link}}">Open your calendar</a></p>{{end}}

{{define "password_reset"}}<p>Hello {{.Recipient}},</p>
<p>A password reset was requested for your account. The link below is valid for {{.Validity}}.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If you did not request this, you can ignore this email.</p>{{end}}
`))

// ProjectAssignmentData feeds the project-assignment email.
type ProjectAssignmentData struct {
	Recipient   string
	Actor       string
	Title       string
	Description string
	Link        string
}

type EventCreatedData struct {
	Recipient   string
	Actor       string
	Title       string
	Description string
	Date        time.Time
	Time        string
	Link        string
}

type PasswordResetData struct {
	Recipient string
	Link      string
	Validity  time.Duration
}

func ProjectAssignment(to string, data ProjectAssignmentData) (Message, error) {
	html, err := render("project_assignment", data)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		ToName:  data.Recipient,
		Subject: fmt.Sprintf("You have been added to %s", data.Title),
		HTML:    html,
		Text:    fmt.Sprintf("%s added you to the project %q. %s", data.Actor, data.Title, data.Link),
	}, nil
}

func EventCreated(to string, data EventCreatedData) (Message, error) {
	html, err := render("event_created", data)
	if err != nil {
		return Message{}, err
	}

	when := data.Date.Format("2006-01-02")
	if data.Time != "" {
		when += " " + data.Time
	}

	return Message{
		To:      to,
		ToName:  data.Recipient,
		Subject: fmt.Sprintf("New event: %s", data.Title),
		HTML:    html,
		Text:    fmt.Sprintf("%s scheduled %q on %s. %s", data.Actor, data.Title, when, data.Link),
	}, nil
}

func PasswordReset(to string, data PasswordResetData) (Message, error) {
	html, err := render("password_reset", data)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		ToName:  data.Recipient,
		Subject: "Password reset",
		HTML:    html,
		Text:    fmt.Sprintf("Reset your password: %s (valid for %s)", data.Link, data.Validity),
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
