package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHost(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"jane.soma.shop", "jane.soma.shop"},
		{"  Jane.SOMA.shop:8443 ", "jane.soma.shop"},
		{"shop.jane.com.", "shop.jane.com"},
		{"bücher.example", "xn--bcher-kva.example"},
		{"127.0.0.1:3000", "127.0.0.1"},
		{"[::1]:8080", "::1"},
		{"localhost", "localhost"},
	}
	for _, tc := range cases {
		got, err := NormalizeHost(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeHost_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "bad host", "under_score.com", "a:b:c:"} {
		_, err := NormalizeHost(in)
		assert.ErrorIs(t, err, ErrInvalidHost, in)
	}
}
