package resolve

import (
	"regexp"
	"strings"
)

// patternRule pairs a regular expression with the capture group holding
// the RFQ number token. Rules are ordered most to least specific and the
// first match short-circuits; precision over recall is deliberate.
type patternRule struct {
	re    *regexp.Regexp
	group int
}

var rfqPatterns = []patternRule{
	// Full year/sequence form: RFQ-2025-0007, RFQ 2025 0007.
	{regexp.MustCompile(`(?i)\b(RFQ[\s-]+\d{4}[\s-]+\d{1,6})\b`), 1},
	// Prefix-dash-number form: PUR-1234, RFQ-88. A literal dash only:
	// tolerating whitespace here would capture ordinary prose like
	// "within 2 weeks" as a token.
	{regexp.MustCompile(`(?i)\b([A-Z]{2,8}-\d{1,8})\b`), 1},
	// Bare token after the literal "RFQ": "RFQ: 2025-0007", "RFQ #881".
	{regexp.MustCompile(`(?i)\bRFQ[:#\s]*([A-Z0-9][A-Z0-9/-]*\d[A-Z0-9/-]*)\b`), 1},
}

// ExtractRFQNumber scans subject then body with the pattern cascade.
// The subject is always preferred over the body; within one text the
// first matching pattern wins. Returns "" when nothing matches.
func ExtractRFQNumber(subject, body string) string {
	for _, text := range []string{subject, body} {
		if text == "" {
			continue
		}
		for _, rule := range rfqPatterns {
			if m := rule.re.FindStringSubmatch(text); m != nil {
				return normalizeToken(m[rule.group])
			}
		}
	}
	return ""
}

// normalizeToken uppercases the token and collapses internal whitespace
// runs to a single dash, so "rfq 2025 0007" becomes "RFQ-2025-0007".
func normalizeToken(token string) string {
	return strings.ToUpper(strings.Join(strings.Fields(token), "-"))
}
