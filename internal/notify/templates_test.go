package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	r := NewRenderer("en-us")
	require.NoError(t, r.Register("en-us", "welcome", "Hello {{.name}}", "Welcome, {{.name}}!"))
	require.NoError(t, r.Register("pt-br", "welcome", "Olá {{.name}}", "Bem-vindo, {{.name}}!"))

	subject, body, err := r.Render("pt-br", "welcome", map[string]any{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Olá Ana", subject)
	assert.Equal(t, "Bem-vindo, Ana!", body)

	// An unregistered locale falls back to the default.
	subject, _, err = r.Render("fr-fr", "welcome", map[string]any{"name": "Zoé"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Zoé", subject)

	// An unknown prefix fails in every locale.
	_, _, err = r.Render("en-us", "missing", nil)
	assert.Error(t, err)
}

func TestDefaultTemplatesParse(t *testing.T) {
	r := NewRenderer("en-us")
	for prefix, pair := range DefaultTemplates() {
		require.NoError(t, r.Register("en-us", prefix, pair[0], pair[1]))
	}

	subject, body, err := r.Render("en-us", "guest-to-account", map[string]any{
		"domain_name":   "mycelium.example",
		"role_name":     "Maintainer",
		"support_email": "support@mycelium.example",
		"email":         "guest@example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "mycelium.example")
	assert.Contains(t, body, "Maintainer")
}
