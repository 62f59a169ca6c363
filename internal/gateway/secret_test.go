package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
)

func newReq(t *testing.T) *http.Request {
	t.Helper()
	r, err := http.NewRequest(http.MethodGet, "https://foo.internal/items/1", nil)
	require.NoError(t, err)
	return r
}

func TestInjectSecret_AuthorizationHeader(t *testing.T) {
	route := domain.Route{
		ID: "r1",
		Secret: &domain.SecretInjection{
			Kind:   domain.SecretAsAuthorizationHeader,
			Prefix: "Bearer",
			Token:  "s3cret",
		},
	}
	req := newReq(t)
	require.NoError(t, injectSecret(req, route, true))
	assert.Equal(t, "Bearer s3cret", req.Header.Get("Authorization"))
}

func TestInjectSecret_CustomHeaderName(t *testing.T) {
	route := domain.Route{
		ID: "r1",
		Secret: &domain.SecretInjection{
			Kind:  domain.SecretAsAuthorizationHeader,
			Name:  "X-Api-Key",
			Token: "s3cret",
		},
	}
	req := newReq(t)
	require.NoError(t, injectSecret(req, route, true))
	assert.Equal(t, "s3cret", req.Header.Get("X-Api-Key"))
}

func TestInjectSecret_QueryParameter(t *testing.T) {
	route := domain.Route{
		ID: "r1",
		Secret: &domain.SecretInjection{
			Kind: domain.SecretAsQueryParameter,
			Name: "api_key",
			Token: "s3cret",
		},
	}
	req := newReq(t)
	require.NoError(t, injectSecret(req, route, true))
	assert.Equal(t, "s3cret", req.URL.Query().Get("api_key"))
}

func TestInjectSecret_RefusesInsecureTransport(t *testing.T) {
	route := domain.Route{
		ID: "r1",
		Secret: &domain.SecretInjection{
			Kind:  domain.SecretAsAuthorizationHeader,
			Token: "s3cret",
		},
	}
	req := newReq(t)
	assert.Error(t, injectSecret(req, route, false))
	assert.Empty(t, req.Header.Get("Authorization"))

	// The route may explicitly opt into insecure routing.
	route.AcceptInsecureRouting = true
	require.NoError(t, injectSecret(req, route, false))
	assert.Equal(t, "s3cret", req.Header.Get("Authorization"))
}

func TestInjectSecret_NoSecretIsNoop(t *testing.T) {
	req := newReq(t)
	require.NoError(t, injectSecret(req, domain.Route{}, false))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestStripHopByHop(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer x")
	h.Set("Connection", "keep-alive")
	h.Set("Transfer-Encoding", "chunked")
	h.Set("X-Custom", "kept")

	stripHopByHop(h)

	assert.Empty(t, h.Get("Authorization"))
	assert.Empty(t, h.Get("Connection"))
	assert.Empty(t, h.Get("Transfer-Encoding"))
	assert.Equal(t, "kept", h.Get("X-Custom"))
}
