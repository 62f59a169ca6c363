package gateway

import "net/http"

// Well-known x-mycelium-* headers.
const (
	HeaderProfile           = "x-mycelium-profile"
	HeaderScope             = "x-mycelium-scope"
	HeaderRole              = "x-mycelium-role"
	HeaderTenantID          = "x-mycelium-tenant-id"
	HeaderEmail             = "x-mycelium-email"
	HeaderRequestID         = "x-mycelium-request-id"
	HeaderConnectionString  = "x-mycelium-connection-string"
	HeaderTargetHost        = "x-mycelium-target-host"
	HeaderTargetProtocol    = "x-mycelium-target-protocol"
	HeaderTargetPort        = "x-mycelium-target-port"
	HeaderRouting           = "x-mycelium-routing"
	HeaderForwardedFor      = "x-forwarded-for"
)

// hopByHopHeaders are stripped from the forwarded request before it leaves
// the gateway.
var hopByHopHeaders = []string{
	"Host", "Connection", "Keep-Alive", "Proxy-Authenticate",
	"Proxy-Authorization", "Te", "Trailers", "Transfer-Encoding", "Upgrade",
}

// stripHopByHop removes hop-by-hop headers and any casing of Authorization,
// so a caller-supplied credential can never ride through to a downstream
// that is about to receive an injected secret.
func stripHopByHop(h http.Header) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
	h.Del("Authorization")
}
