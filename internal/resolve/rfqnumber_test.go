package resolve

import "testing"

func TestExtractRFQNumber(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{"dashed year seq in subject", "RE: RFQ-2025-0007 - Quotation", "", "RFQ-2025-0007"},
		{"spaced year seq", "Quote for RFQ 2025 0007", "", "RFQ-2025-0007"},
		{"lowercase", "re: rfq-2025-0007", "", "RFQ-2025-0007"},
		{"subject beats body", "RFQ-2025-0007", "also mentions RFQ-2025-0099", "RFQ-2025-0007"},
		{"falls back to body", "Quotation attached", "reply to RFQ-2025-0042 follows", "RFQ-2025-0042"},
		{"prefix dash number", "Your enquiry PUR-1234", "", "PUR-1234"},
		{"bare token after rfq", "RFQ: 2025-0007", "", "2025-0007"},
		{"hash form", "RFQ #881", "", "881"},
		{"no match", "Diwali greetings from Acme", "wishing you well", ""},
		{"prose with numbers is not a token", "Quotation", "We will revert within 2 weeks with our offer.", ""},
		{"delivery estimate is not a token", "RE: your enquiry", "Delivery in 30 days after PO.", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRFQNumber(tt.subject, tt.body)
			if got != tt.want {
				t.Errorf("ExtractRFQNumber(%q, %q) = %q, want %q", tt.subject, tt.body, got, tt.want)
			}
		})
	}
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RFQ-2025-0007", "RFQ-2025-0007"},
		{"rfq 2025 0007", "RFQ-2025-0007"},
		{"RFQ  2025\t0007", "RFQ-2025-0007"},
	}
	for _, tt := range tests {
		if got := normalizeToken(tt.in); got != tt.want {
			t.Errorf("normalizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
