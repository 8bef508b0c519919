package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names; each has .subject, .text and .html files.
const (
	Welcome           = "welcome"
	ProfileUpdated    = "profile_updated"
	LoginNotification = "login_notification"
)

// EmailData is the payload carried by an email job.
type EmailData struct {
	Email      string    `json:"Email"`
	Type       string    `json:"Type"`
	AppName    string    `json:"AppName"`
	SupportURL string    `json:"SupportURL"`
	Time       string    `json:"Time"`
	TimeAt     time.Time `json:"TimeAt"`
	IP         string    `json:"IP"`
	UserAgent  string    `json:"UserAgent"`
	Changes    []string  `json:"Changes"`
}

type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithChanges(ch []string) Option { return func(d *EmailData) { d.Changes = ch } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewEmailData builds job data for typ addressed to email.
func NewEmailData(appName, supportURL, typ, email string, opts ...Option) map[string]any {
	d := EmailData{Email: email, Type: typ, AppName: appName, SupportURL: supportURL}
	for _, opt := range opts {
		opt(&d)
	}
	return ToMap(d)
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if rv.IsZero() {
			return fallback
		}
		return value
	}
}

func funcs() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

func renderFile(filename string, isHTML bool, data any) (string, error) {
	var buf bytes.Buffer
	if isHTML {
		t, err := htmpl.New(filename).Funcs(htmpl.FuncMap(funcs())).ParseFS(FS, filename)
		if err != nil {
			return "", fmt.Errorf("parse html %q: %w", filename, err)
		}
		if err := t.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("exec %q: %w", filename, err)
		}
		return buf.String(), nil
	}
	t, err := texttpl.New(filename).Funcs(texttpl.FuncMap(funcs())).ParseFS(FS, filename)
	if err != nil {
		return "", fmt.Errorf("parse text %q: %w", filename, err)
	}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Render renders <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
func Render(name string, data any) (subject string, text string, html string, err error) {
	subject, err = renderFile(name+".subject.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	text, err = renderFile(name+".text.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	html, err = renderFile(name+".html.tmpl", true, data)
	if err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
