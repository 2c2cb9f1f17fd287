package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer

	InitWriter(true, &buf)
	defer Init(false)

	assert.True(t, Enabled())
	Debug("template cache miss", "fingerprint", 42)
	With("component", "registry").Warn("handler already registered")

	out := buf.String()
	assert.Contains(t, out, "template cache miss")
	assert.Contains(t, out, "fingerprint=42")
	assert.Contains(t, out, "component=registry")
}

func TestDisabledDiscards(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(false, &buf)

	assert.False(t, Enabled())
	Error("nothing")
	assert.Empty(t, buf.String())
}
