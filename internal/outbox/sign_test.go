package outbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignVerify(t *testing.T) {
	secret := []byte("hook-secret")
	body := []byte(`{"correspondenceId":"abc"}`)

	sig := Sign(secret, body)
	assert.True(t, strings.HasPrefix(sig, "sha512="))
	assert.True(t, Verify(secret, body, sig))
	assert.False(t, Verify([]byte("other"), body, sig))
	assert.False(t, Verify(secret, []byte("tampered"), sig))
}
