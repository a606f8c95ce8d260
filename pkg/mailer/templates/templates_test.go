package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_ActivationCode(t *testing.T) {
	subject, text, html, err := Render("activation_code", map[string]any{
		"Name":      "Ada Lovelace",
		"School":    "Campus",
		"Code":      "042391",
		"ExpiresAt": "Mon, 01 Sep 2025 12:00:00 UTC",
	})
	require.NoError(t, err)
	assert.Equal(t, "Your Campus activation code", subject)
	assert.Contains(t, text, "042391")
	assert.Contains(t, html, "<strong>042391</strong>")
}

func TestRender_AccountApprovedOmitsEmptySupportURL(t *testing.T) {
	_, text, html, err := Render("account_approved", map[string]any{
		"Name":   "Ada",
		"School": "Campus",
	})
	require.NoError(t, err)
	assert.NotContains(t, text, "Questions?")
	assert.NotContains(t, html, "Questions?")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}

func TestRender_HTMLEscapesData(t *testing.T) {
	_, _, html, err := Render("account_approved", map[string]any{
		"Name":   "<script>alert(1)</script>",
		"School": "Campus",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}
