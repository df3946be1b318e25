package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"meetingscheduler/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// executor is satisfied by both html and text templates.
type executor interface {
	Execute(w io.Writer, data any) error
}

// templateRenderer implements domain.EmailTemplateRenderer using embedded template files.
// Templates are parsed once at construction.
type templateRenderer struct {
	templates map[string]executor
}

// NewTemplateRenderer parses every embedded template. A template named "x" consists of
// x_subject.txt, x.html and x.txt.
func NewTemplateRenderer() (domain.EmailTemplateRenderer, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	r := &templateRenderer{templates: make(map[string]executor, len(entries))}
	for _, e := range entries {
		name := e.Name()
		raw, err := templateFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, err
		}
		var t executor
		if strings.HasSuffix(name, ".html") {
			t, err = htmltemplate.New(name).Option("missingkey=error").Parse(string(raw))
		} else {
			t, err = texttemplate.New(name).Option("missingkey=error").Parse(string(raw))
		}
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render executes the named template (e.g. "meeting_scheduled") with data and returns subject, html, and text bodies.
func (r *templateRenderer) Render(templateName string, data any) (subject, htmlBody, textBody string, err error) {
	subject, err = r.renderFile(templateName+"_subject.txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	htmlBody, err = r.renderFile(templateName+".html", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	textBody, err = r.renderFile(templateName+".txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return strings.TrimSpace(subject), htmlBody, textBody, nil
}

func (r *templateRenderer) renderFile(name string, data any) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
