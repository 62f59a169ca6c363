// Package notify implements the notification pipeline: a locale-scoped
// template renderer, the MessageSendingEvent outbox drain loop, and an
// SSRF-hardened SMTP transport.
package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

// Renderer satisfies usecase.TemplateRenderer. Templates are registered in
// memory at construction time, keyed by "{locale}/{prefix}"; a subject
// template and a body template are looked up independently, following the
// "{locale}/{prefix}.subject.tmpl" / "{locale}/{prefix}.tmpl" file
// convention.
type Renderer struct {
	fallbackLocale string
	subjects       map[string]*template.Template
	bodies         map[string]*template.Template
}

// NewRenderer builds an empty Renderer; templates are added with Register.
// fallbackLocale is used when no template is registered for a requested
// locale.
func NewRenderer(fallbackLocale string) *Renderer {
	return &Renderer{
		fallbackLocale: fallbackLocale,
		subjects:       make(map[string]*template.Template),
		bodies:         make(map[string]*template.Template),
	}
}

// Register parses and stores the subject/body template pair for
// locale/prefix. Call once per (locale, prefix) at startup.
func (r *Renderer) Register(locale, prefix, subjectTmpl, bodyTmpl string) error {
	key := locale + "/" + prefix
	subj, err := template.New(key + ".subject").Parse(subjectTmpl)
	if err != nil {
		return fmt.Errorf("notify: parse subject template %s: %w", key, err)
	}
	body, err := template.New(key).Parse(bodyTmpl)
	if err != nil {
		return fmt.Errorf("notify: parse body template %s: %w", key, err)
	}
	r.subjects[key] = subj
	r.bodies[key] = body
	return nil
}

// Render implements usecase.TemplateRenderer. Falls back to
// fallbackLocale/prefix when locale/prefix isn't registered, and returns an
// error only if neither is.
func (r *Renderer) Render(locale, prefix string, data map[string]any) (subject, body string, err error) {
	key := locale + "/" + prefix
	subjTmpl, ok := r.subjects[key]
	if !ok {
		key = r.fallbackLocale + "/" + prefix
		subjTmpl, ok = r.subjects[key]
		if !ok {
			return "", "", fmt.Errorf("notify: no template registered for prefix %q (locale %q or fallback %q)", prefix, locale, r.fallbackLocale)
		}
	}
	bodyTmpl := r.bodies[key]

	var subjBuf, bodyBuf bytes.Buffer
	if err := subjTmpl.Execute(&subjBuf, data); err != nil {
		return "", "", fmt.Errorf("notify: render subject %s: %w", key, err)
	}
	if err := bodyTmpl.Execute(&bodyBuf, data); err != nil {
		return "", "", fmt.Errorf("notify: render body %s: %w", key, err)
	}
	return subjBuf.String(), bodyBuf.String(), nil
}

// DefaultTemplates returns the built-in English templates for the
// notification prefixes the use-cases in internal/usecase enqueue. Other
// locales are registered by the operator alongside these via Register.
func DefaultTemplates() map[string][2]string {
	return map[string][2]string{
		"guest-to-account": {
			"You've been invited to {{.domain_name}}",
			"Hello,\n\nYou've been invited to join as {{.role_name}}.\n\n" +
				"If you weren't expecting this, you can safely ignore this email.\n\n" +
				"Questions? Contact {{.support_email}}.\n",
		},
		"password-redefinition": {
			"Reset your {{.domain_name}} password",
			"Hello,\n\nUse this code to reset your password: {{.code}}\n\n" +
				"This code expires shortly and can only be used once.\n\n" +
				"If you didn't request this, you can safely ignore this email.\n",
		},
		"create-connection-string": {
			"A new connection string was issued for your {{.domain_name}} account",
			"Hello,\n\nA {{.scope_kind}} connection string was just issued for your " +
				"account. It expires at {{.expiration}}.\n\n" +
				"If you didn't request this, contact {{.support_email}} immediately.\n",
		},
		"user-activation": {
			"Confirm your {{.domain_name}} account",
			"Hello,\n\nUse this code to activate your account: {{.code}}\n\n" +
				"This code expires shortly and can only be used once.\n",
		},
	}
}
