package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_ValidMention(t *testing.T) {
	res := Parse("@vydata: please add a README section about deployment")
	assert.True(t, res.HasMention)
	assert.True(t, res.IsValid)
	assert.Equal(t, "please add a README section about deployment", res.CleanedText)
}

func TestParse_NoMention(t *testing.T) {
	res := Parse("just a regular comment, nothing to see here")
	assert.False(t, res.HasMention)
	assert.False(t, res.IsValid)
}

func TestParse_StripsHTML(t *testing.T) {
	res := Parse("<p>@vydata, <b>why</b> does this fail?</p>")
	assert.True(t, res.HasMention)
	assert.True(t, res.IsValid)
	assert.Equal(t, "why does this fail?", res.CleanedText)
}

func TestParse_TooShort(t *testing.T) {
	res := Parse("@vydata ok")
	assert.True(t, res.HasMention)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.ErrorMessage, "too short")
}

func TestParse_NoAlphanumeric(t *testing.T) {
	res := Parse("@vydata !!!!!!")
	assert.True(t, res.HasMention)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.ErrorMessage, "alphanumeric")
}

func TestParse_RoundTripIdempotent(t *testing.T) {
	first := Parse("@vydata, can you re-run the failing tests?")
	second := Parse(first.CleanedText)

	// L1: re-parsing the cleaned text (now lacking the @vydata prefix)
	// never reports a mention, but the original parse's cleaned text is
	// stable across serialization — re-parsing the *original* body
	// yields the same has-mention/cleaned-text pair.
	reparsed := Parse(first.OriginalText)
	assert.Equal(t, first.HasMention, reparsed.HasMention)
	assert.Equal(t, first.CleanedText, reparsed.CleanedText)
	assert.False(t, second.HasMention)
}

func TestIsAgentMessage(t *testing.T) {
	assert.True(t, IsAgentMessage("🤖 workflow started"))
	assert.True(t, IsAgentMessage("[vydata-validation] pending your approval"))
	assert.False(t, IsAgentMessage("ok sounds good"))
}
