package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintString(t *testing.T) {
	assert.Equal(t, FingerprintString("SELECT 1"), FingerprintString("SELECT 1"))
	assert.NotEqual(t, FingerprintString("SELECT 1"), FingerprintString("SELECT 2"))
	// FNV-64a offset basis
	assert.Equal(t, uint64(0xcbf29ce484222325), FingerprintString(""))
}
