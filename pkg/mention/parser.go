// Package mention implements the Mention Parser: a pure function over a
// Monday comment body that detects the `@vydata` prefix, strips HTML,
// and classifies agent-authored messages so the orchestrator never
// triggers itself.
package mention

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const (
	minTextLength = 5
	maxTextLength = 2000
)

// mentionPrefix matches a leading "@vydata" optionally followed by ":",
// "," or whitespace, case-insensitively.
var mentionPrefix = regexp.MustCompile(`(?i)^@vydata\s*[:,]?\s*`)

// agentSignatures are the leading markers this system's own emissions
// carry, used by IsAgentMessage to prevent self-triggered loops.
var agentSignatures = []string{
	"🤖",
	"[vydata-validation]",
	"[vydata]",
}

// Result is the outcome of parsing one comment body.
type Result struct {
	HasMention   bool
	CleanedText  string
	OriginalText string
	IsValid      bool
	ErrorMessage string

	// Reserved for an optional guardrails layer; always zero-valued here.
	IsSafe        bool
	IsAppropriate bool
	SecurityIssues []string
	SanitizedText  string
}

// Parse strips HTML and leading whitespace from body, tests for the
// @vydata mention prefix, and validates the remainder.
func Parse(body string) Result {
	cleaned := stripHTML(body)
	cleaned = collapseWhitespace(cleaned)

	res := Result{OriginalText: body}

	loc := mentionPrefix.FindStringIndex(cleaned)
	if loc == nil {
		res.ErrorMessage = "no @vydata mention found"
		return res
	}

	res.HasMention = true
	remainder := strings.TrimSpace(cleaned[loc[1]:])
	res.CleanedText = remainder

	if err := validate(remainder); err != "" {
		res.ErrorMessage = err
		return res
	}

	res.IsValid = true
	return res
}

// validate enforces the length and alphanumeric-content rules; it
// returns an empty string when the text is acceptable.
func validate(text string) string {
	if len(text) < minTextLength {
		return "mention text too short"
	}
	if len(text) > maxTextLength {
		return "mention text too long"
	}
	if !containsAlphanumeric(text) {
		return "mention text has no alphanumeric content"
	}
	return ""
}

func containsAlphanumeric(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// stripHTML decodes entities and removes tags, returning the document's
// plain text content.
func stripHTML(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	return doc.Text()
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// IsAgentMessage reports whether text begins with one of this system's
// own emission signatures, to prevent the update router from reacting
// to its own comments.
func IsAgentMessage(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, sig := range agentSignatures {
		if strings.HasPrefix(trimmed, sig) {
			return true
		}
	}
	return false
}
