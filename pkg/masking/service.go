// Package masking applies credential-shaped redaction to text before it
// leaves the process boundary: an error log line appended to
// results.error-logs, an ApplicationEvent message, or a Monday/Slack
// notification body. Grounded on the teacher's pattern-based redactor
// (pkg/masking, pkg/config/builtin.go's MaskingPatterns), generalized
// from a per-MCP-server opt-in configuration to a single always-on
// pass, since this domain has one outbound text surface per
// collaborator rather than a registry of pluggable tool servers.
package masking

// Service applies the built-in pattern set to arbitrary text. The zero
// value is ready to use.
type Service struct {
	patterns []CompiledPattern
}

// NewService constructs a Service with the built-in pattern set
// compiled once at startup.
func NewService() *Service {
	return &Service{patterns: builtinPatterns}
}

// Mask replaces every credential-shaped substring of text with its
// redaction marker. Safe to call on a nil Service, returning text
// unchanged, so callers that haven't wired masking yet degrade to
// pass-through rather than panicking.
func (s *Service) Mask(text string) string {
	if s == nil || text == "" {
		return text
	}
	masked := text
	for _, p := range s.patterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}
