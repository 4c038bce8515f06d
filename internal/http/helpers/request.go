package helpers

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extrae la IP del cliente. X-Forwarded-For solo se considera cuando
// el servicio corre detrás de un proxy propio (trustProxy).
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
			parts := strings.Split(xf, ",")
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
		if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
			return xr
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// RequestHost devuelve el host con el que llegó el request, sin normalizar.
func RequestHost(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xh := r.Header.Get("X-Forwarded-Host"); xh != "" {
			parts := strings.Split(xh, ",")
			if h := strings.TrimSpace(parts[0]); h != "" {
				return h
			}
		}
	}
	return r.Host
}
