package tenant

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeHost lleva un Host header (o un dominio cargado por un vendor) a su
// forma canónica: minúsculas, sin puerto, sin punto final, en ASCII (punycode).
func NormalizeHost(raw string) (string, error) {
	h := strings.TrimSpace(raw)
	if h == "" {
		return "", ErrInvalidHost
	}

	// Puerto: "host:8080" o "[::1]:8080".
	if strings.HasPrefix(h, "[") {
		if host, _, err := net.SplitHostPort(h); err == nil {
			h = host
		} else {
			h = strings.Trim(h, "[]")
		}
	} else if strings.Count(h, ":") == 1 {
		host, _, err := net.SplitHostPort(h)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidHost, raw)
		}
		h = host
	}

	h = strings.TrimSuffix(strings.ToLower(h), ".")
	if h == "" {
		return "", ErrInvalidHost
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.String(), nil
	}

	ascii, err := idna.Lookup.ToASCII(h)
	if err != nil || ascii == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, raw)
	}
	return ascii, nil
}

func isIP(host string) bool {
	return net.ParseIP(host) != nil
}
