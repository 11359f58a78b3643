package entropy

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnique(t *testing.T) {
	s := NewSource()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := s.Generate("")
		require.False(t, seen[token], "token %s repeated", token)
		seen[token] = true
	}
}

func TestGenerateFormat(t *testing.T) {
	s := NewSource()

	token := s.Generate("")
	assert.Len(t, token, 16)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), token)
}

func TestGenerateWithPrefix(t *testing.T) {
	s := NewSource()

	token := s.Generate("gen")
	assert.Regexp(t, regexp.MustCompile(`^gen-[0-9a-f]{16}$`), token)
}

func TestGeneratePathSafe(t *testing.T) {
	s := NewSource()

	pathSafe := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, pathSafe, s.Generate("a"))
	}
}
