package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"jane@example.com": "j***@example.com",
		"J@x.io":           "J***@x.io",
		"no-at-sign":       "***",
		"@example.com":     "***",
		"":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskEmail(in), "input %q", in)
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	assert.Equal(t, "info", parseLevel("").String())
	assert.Equal(t, "debug", parseLevel(" DEBUG ").String())
	assert.Equal(t, "warn", parseLevel("warning").String())
}
