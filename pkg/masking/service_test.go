package masking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceMasksAPIKey(t *testing.T) {
	s := NewService()
	out := s.Mask(`api_key: "sk-1234567890abcdef1234567890"`)
	assert.Contains(t, out, "[MASKED_API_KEY]")
	assert.NotContains(t, out, "sk-1234567890abcdef1234567890")
}

func TestServiceMasksGitHubToken(t *testing.T) {
	s := NewService()
	token := "ghp_" + strings.Repeat("a", 36)
	out := s.Mask("push using " + token)
	assert.Contains(t, out, "[MASKED_GITHUB_TOKEN]")
	assert.NotContains(t, out, token)
}

func TestServiceLeavesPlainTextAlone(t *testing.T) {
	s := NewService()
	assert.Equal(t, "tests passed, 12/12", s.Mask("tests passed, 12/12"))
}

func TestNilServiceIsPassthrough(t *testing.T) {
	var s *Service
	assert.Equal(t, "hello", s.Mask("hello"))
}
