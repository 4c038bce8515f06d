package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "10.0.0.7", ClientIP(r, false))
	assert.Equal(t, "203.0.113.9", ClientIP(r, true))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIP(r, true))
}

func TestRequestHost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://internal:8080/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	r.Header.Set("X-Forwarded-Host", "Shop.Example.com, internal")

	assert.Equal(t, "internal:8080", RequestHost(r, false))
	assert.Equal(t, "Shop.Example.com", RequestHost(r, true))
}

func TestReadJSON(t *testing.T) {
	var v struct {
		Amount int64 `json:"amount"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": 10, "extra": true}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	assert.True(t, ReadJSON(w, r, &v))
	assert.Equal(t, int64(10), v.Amount)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": 10`))
	r.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	assert.False(t, ReadJSON(w, r, &v))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_JSON")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`amount=10`))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	assert.False(t, ReadJSON(w, r, &v))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
