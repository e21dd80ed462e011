package httputil

import (
	"fmt"
	"net"
	"net/url"
)

// ValidateIP rejects IPs that an asset download or API redirect must
// never reach:
//
//   - private ranges (RFC 1918: 10/8, 172.16/12, 192.168/16)
//   - loopback (127/8, ::1)
//   - link-local unicast (169.254/16, fe80::/10; covers cloud
//     metadata services)
//   - link-local multicast and multicast at large
//   - unspecified (0.0.0.0, ::)
//
// The host parameter is included in error messages for debugging.
func ValidateIP(ip net.IP, host string) error {
	if ip.IsPrivate() {
		return fmt.Errorf("refusing redirect to private IP: %s (%s)", host, ip)
	}
	if ip.IsLoopback() {
		return fmt.Errorf("refusing redirect to loopback IP: %s (%s)", host, ip)
	}
	if ip.IsLinkLocalUnicast() {
		return fmt.Errorf("refusing redirect to link-local IP: %s (%s)", host, ip)
	}
	if ip.IsLinkLocalMulticast() {
		return fmt.Errorf("refusing redirect to link-local multicast: %s (%s)", host, ip)
	}
	if ip.IsMulticast() {
		return fmt.Errorf("refusing redirect to multicast IP: %s (%s)", host, ip)
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("refusing redirect to unspecified IP: %s (%s)", host, ip)
	}
	return nil
}

// RequireSecureURL enforces HTTPS on asset URLs. Plain HTTP is
// accepted only toward loopback hosts, so a local mock can stand in
// for the release host when testing the built binary.
func RequireSecureURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host == "localhost" {
			return nil
		}
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			return nil
		}
	}
	return fmt.Errorf("download URL must use HTTPS: %s", rawURL)
}
