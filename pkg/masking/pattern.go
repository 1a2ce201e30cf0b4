package masking

import "regexp"

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns is the fixed set of secret-shaped patterns applied to
// any text this system writes to a Step's checkpoint blob, an
// ApplicationEvent, or a Monday/Slack message. Grounded on the
// teacher's own `initBuiltinMaskingPatterns` (pkg/config/builtin.go) —
// the Kubernetes-Secret-specific structural masker and the
// per-MCP-server custom-pattern layer are dropped since this domain
// has neither Kubernetes manifests nor per-collaborator masking
// overrides; the credential-shaped regex set carries over unchanged.
var builtinPatterns = []CompiledPattern{
	{
		Name:        "api_key",
		Regex:       regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{20,})["']?`),
		Replacement: `"api_key": "[MASKED_API_KEY]"`,
	},
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)(?:password|pwd|pass)["']?\s*[:=]\s*["']?([^"'\s\n]{6,})["']?`),
		Replacement: `"password": "[MASKED_PASSWORD]"`,
	},
	{
		Name:        "token",
		Regex:       regexp.MustCompile(`(?i)(?:token|bearer|jwt)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-.]{20,})["']?`),
		Replacement: `"token": "[MASKED_TOKEN]"`,
	},
	{
		Name:        "private_key",
		Regex:       regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+PRIVATE KEY-----.*?-----END [A-Z ]+PRIVATE KEY-----`),
		Replacement: `[MASKED_PRIVATE_KEY]`,
	},
	{
		Name:        "ssh_key",
		Regex:       regexp.MustCompile(`ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`),
		Replacement: `[MASKED_SSH_KEY]`,
	},
	{
		Name:        "aws_access_key",
		Regex:       regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		Replacement: `[MASKED_AWS_KEY]`,
	},
	{
		Name:        "github_token",
		Regex:       regexp.MustCompile(`gh[ps]_[A-Za-z0-9_]{36,255}`),
		Replacement: `[MASKED_GITHUB_TOKEN]`,
	},
	{
		Name:        "slack_token",
		Regex:       regexp.MustCompile(`xox[baprs]-[A-Za-z0-9-]{10,72}`),
		Replacement: `[MASKED_SLACK_TOKEN]`,
	},
	{
		Name:        "monday_token",
		Regex:       regexp.MustCompile(`eyJhbGciOi[A-Za-z0-9_\-.]{40,}`),
		Replacement: `[MASKED_MONDAY_TOKEN]`,
	},
}
