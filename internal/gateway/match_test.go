package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPath(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/items/{id}", "/items/42", true},
		{"/items/{id}", "/items/42/extra", false},
		{"/items/{id}", "/items", false},
		{"/items", "/items", true},
		{"/items/{id}/tags/{tag}", "/items/1/tags/red", true},
		{"/", "/", true},
		{"/{a}", "/anything", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPath(tt.pattern, tt.path), "%s vs %s", tt.pattern, tt.path)
	}
}

func TestMethodAllowed(t *testing.T) {
	assert.True(t, methodAllowed(nil, http.MethodGet))
	assert.True(t, methodAllowed([]string{"get", "POST"}, http.MethodGet))
	assert.False(t, methodAllowed([]string{"POST"}, http.MethodGet))
}

func TestSplitServiceName(t *testing.T) {
	svc, rest, ok := splitServiceName("/svc-foo/items/42")
	assert.True(t, ok)
	assert.Equal(t, "svc-foo", svc)
	assert.Equal(t, "/items/42", rest)

	svc, rest, ok = splitServiceName("/bare")
	assert.True(t, ok)
	assert.Equal(t, "bare", svc)
	assert.Equal(t, "", rest)

	_, _, ok = splitServiceName("/")
	assert.False(t, ok)
}

func TestClientIP(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:1234"
	assert.Equal(t, "203.0.113.9", clientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientIP(r))

	r.Header.Set("X-Forwarded-For", "192.0.2.1, 10.0.0.1")
	assert.Equal(t, "192.0.2.1", clientIP(r))
}
