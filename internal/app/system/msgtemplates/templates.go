// Package msgtemplates renders the chat messages the service sends.
//
// Templates use text/template syntax: {{.GiverName}} placeholders and
// {{if .Receiver.Notes}}...{{end}} conditional blocks. Values supplied by
// participants are passed through bluemonday's strict policy before
// rendering, which strips markup and escapes &, < and > the way chat
// markup requires. AdminMention is trusted and rendered as-is.
package msgtemplates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
)

// Template names.
const (
	Invite           = "invite"
	Assignment       = "assignment"
	ReminderFirst    = "reminder_first"
	ReminderRepeat   = "reminder_repeat"
	GiftSentAck      = "gift_sent_ack"
	ReceiverGiftSent = "receiver_gift_sent"
	GiftEncourage    = "gift_encourage"
)

// Person is the public view of a participant inside a template.
type Person struct {
	Name    string
	Address string
	Phone   string
	Notes   string
}

// Data is everything a template may reference.
type Data struct {
	EventName    string
	GiverName    string
	Receiver     Person
	Recipient    Person // the person the message is addressed to
	AdminMention string // e.g. "<@U024BE7LH>"
}

// Renderer executes named templates.
type Renderer struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
}

// New parses the default templates, replacing any whose name appears in
// overrides.
func New(overrides map[string]string) (*Renderer, error) {
	root := template.New("messages").Option("missingkey=zero")
	for name, body := range defaults {
		if o, ok := overrides[name]; ok && o != "" {
			body = o
		}
		if _, err := root.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("parse template %q: %w", name, err)
		}
	}
	for name, body := range overrides {
		if _, known := defaults[name]; known {
			continue
		}
		if _, err := root.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("parse template %q: %w", name, err)
		}
	}
	return &Renderer{tmpl: root, policy: bluemonday.StrictPolicy()}, nil
}

// MustNew is New without overrides; it panics on a bad default template.
func MustNew() *Renderer {
	r, err := New(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the named template with sanitized data.
func (r *Renderer) Render(name string, data Data) (string, error) {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("msgtemplates: no template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, r.clean(data)); err != nil {
		return "", fmt.Errorf("render %q: %w", name, err)
	}
	return buf.String(), nil
}

// Has reports whether a template with that name exists.
func (r *Renderer) Has(name string) bool {
	return r.tmpl.Lookup(name) != nil
}

// quotes undoes the quote escaping bluemonday applies; chat markup only
// needs &, < and > escaped.
var quotes = strings.NewReplacer("&#39;", "'", "&#34;", `"`)

func (r *Renderer) clean(d Data) Data {
	s := func(v string) string { return quotes.Replace(r.policy.Sanitize(v)) }
	person := func(p Person) Person {
		return Person{Name: s(p.Name), Address: s(p.Address), Phone: s(p.Phone), Notes: s(p.Notes)}
	}
	return Data{
		EventName:    s(d.EventName),
		GiverName:    s(d.GiverName),
		Receiver:     person(d.Receiver),
		Recipient:    person(d.Recipient),
		AdminMention: d.AdminMention,
	}
}
