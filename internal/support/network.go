// Package support holds small cross-cutting helpers shared by internal/notify
// (SMTP egress), internal/outbox (webhook egress) and internal/gateway
// (profile compression) — one-off concerns too small for their own package
// but used from more than one place.
package support

import (
	"fmt"
	"net"
	"strings"
)

// ValidateEgressHost prevents SSRF by blocking connections to private
// networks, localhost, link-local and cloud-metadata addresses. Both
// internal/notify's SMTP sender and internal/outbox's webhook dispatcher
// call this on every send, not just at configuration time, to defend
// against DNS rebinding.
func ValidateEgressHost(host string) error {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")

	for _, blocked := range []string{"localhost", "0.0.0.0", "127.0.0.1", "::1", "ip6-localhost", "ip6-loopback"} {
		if host == blocked {
			return fmt.Errorf("security violation: localhost connections forbidden")
		}
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("hostname resolution failed")
	}
	if len(ips) == 0 {
		return fmt.Errorf("hostname resolves to no IP addresses")
	}
	for _, ip := range ips {
		if err := validatePublicIP(ip); err != nil {
			return fmt.Errorf("security violation: connection to private network blocked")
		}
	}
	return nil
}

func validatePublicIP(ip net.IP) error {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("blocked address range")
	}

	blocks := []string{
		"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "127.0.0.0/8",
		"169.254.0.0/16", "::1/128", "fc00::/7", "fe80::/10", "ff00::/8",
		"0.0.0.0/8", "100.64.0.0/10", "192.0.0.0/24", "192.0.2.0/24",
		"198.18.0.0/15", "198.51.100.0/24", "203.0.113.0/24",
		"224.0.0.0/4", "240.0.0.0/4",
	}
	for _, b := range blocks {
		_, cidr, err := net.ParseCIDR(b)
		if err != nil {
			continue
		}
		if cidr.Contains(ip) {
			return fmt.Errorf("blocked CIDR range: %s", b)
		}
	}
	return nil
}

// ValidateSMTPPort restricts SMTP egress to the standard submission ports,
// preventing port-scanning of internal services under the guise of an SMTP
// send.
func ValidateSMTPPort(port int) error {
	switch port {
	case 25, 465, 587, 2525:
		return nil
	default:
		return fmt.Errorf("non-standard SMTP port blocked")
	}
}
