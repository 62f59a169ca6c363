package gateway

import (
	"fmt"
	"net/http"

	"github.com/lepista/mycelium/internal/domain"
)

// injectSecret applies a Route's downstream SecretInjection onto req:
// only permitted over HTTPS unless the route opts into insecure routing,
// carried either as an authorization-style header or a query parameter.
func injectSecret(req *http.Request, route domain.Route, isHTTPS bool) error {
	if route.Secret == nil {
		return nil
	}
	if !isHTTPS && !route.AcceptInsecureRouting {
		return fmt.Errorf("gateway: refusing to inject secret over insecure transport for route %s", route.ID)
	}

	switch route.Secret.Kind {
	case domain.SecretAsAuthorizationHeader:
		value := route.Secret.Token
		if route.Secret.Prefix != "" {
			value = route.Secret.Prefix + " " + value
		}
		name := route.Secret.Name
		if name == "" {
			name = "Authorization"
		}
		req.Header.Set(name, value)
	case domain.SecretAsQueryParameter:
		q := req.URL.Query()
		q.Set(route.Secret.Name, route.Secret.Token)
		req.URL.RawQuery = q.Encode()
	default:
		return fmt.Errorf("gateway: unknown secret injection kind %q", route.Secret.Kind)
	}
	return nil
}
