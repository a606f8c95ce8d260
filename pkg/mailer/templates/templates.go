package templates

import (
	"bytes"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
)

// The worker renders both a text and an HTML body per template; mail clients
// that strip HTML still get the code.

type def struct {
	subject string
	text    string
	html    string
}

var defs = map[string]def{
	"activation_code": {
		subject: "Your {{.School}} activation code",
		text: `Hi {{.Name}},

Your activation code is {{.Code}}. It expires at {{.ExpiresAt}}.

If you did not create a {{.School}} account, you can ignore this email.`,
		html: `<p>Hi {{.Name}},</p>
<p>Your activation code is <strong>{{.Code}}</strong>. It expires at {{.ExpiresAt}}.</p>
<p>If you did not create a {{.School}} account, you can ignore this email.</p>`,
	},
	"password_reset_code": {
		subject: "Reset your {{.School}} password",
		text: `Hi {{.Name}},

Your password reset code is {{.Code}}. It expires at {{.ExpiresAt}}.

If you did not request a reset, your password is still safe and no action is needed.`,
		html: `<p>Hi {{.Name}},</p>
<p>Your password reset code is <strong>{{.Code}}</strong>. It expires at {{.ExpiresAt}}.</p>
<p>If you did not request a reset, your password is still safe and no action is needed.</p>`,
	},
	"account_approved": {
		subject: "Welcome to {{.School}}",
		text: `Hi {{.Name}},

Your {{.School}} account is now active. You can sign in with your email address.{{if .SupportURL}}

Questions? {{.SupportURL}}{{end}}`,
		html: `<p>Hi {{.Name}},</p>
<p>Your {{.School}} account is now active. You can sign in with your email address.</p>
{{if .SupportURL}}<p>Questions? <a href="{{.SupportURL}}">{{.SupportURL}}</a></p>{{end}}`,
	},
}

// Render produces subject, text and HTML bodies for a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	d, ok := defs[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	if subject, err = renderText(name+"/subject", d.subject, data); err != nil {
		return "", "", "", err
	}
	if text, err = renderText(name+"/text", d.text, data); err != nil {
		return "", "", "", err
	}
	if html, err = renderHTML(name+"/html", d.html, data); err != nil {
		return "", "", "", err
	}
	return subject, text, html, nil
}

func renderText(name, tpl string, data map[string]any) (string, error) {
	t, err := texttpl.New(name).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(name, tpl string, data map[string]any) (string, error) {
	t, err := htmltpl.New(name).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
