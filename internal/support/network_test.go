package support

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEgressHost_Blocked(t *testing.T) {
	tests := []struct {
		name string
		host string
	}{
		{"Localhost String", "localhost"},
		{"IPv4 Loopback", "127.0.0.1"},
		{"IPv6 Loopback", "::1"},
		{"Private Class A", "10.0.0.1"},
		{"Private Class B", "172.16.0.1"},
		{"Private Class C", "192.168.1.1"},
		{"Cloud Metadata", "169.254.169.254"},
		{"Test Net", "192.0.2.1"},
		{"Any", "0.0.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateEgressHost(tt.host))
		})
	}
}

func TestValidateSMTPPort(t *testing.T) {
	for _, port := range []int{25, 465, 587, 2525} {
		assert.NoError(t, ValidateSMTPPort(port))
	}
	for _, port := range []int{0, 22, 80, 8080, 65536} {
		assert.Error(t, ValidateSMTPPort(port))
	}
}

func TestCompressRoundTrip(t *testing.T) {
	payload := []byte(`{"owners":[{"email":"alice@example.com"}],"licensed_resources":[]}`)

	compressed, err := CompressProfile(payload)
	assert.NoError(t, err)
	assert.NotEqual(t, payload, compressed)

	out, err := DecompressProfile(compressed)
	assert.NoError(t, err)
	assert.Equal(t, payload, out)
}
