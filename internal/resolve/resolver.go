// Package resolve maps an inbound email to the vendor and RFQ it
// answers, applying a fixed disambiguation policy when several
// candidates match.
package resolve

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/milltech-erp/procure-cli/internal/model"
)

// Directory is the slice of the persistence layer the resolver reads.
type Directory interface {
	FindVendorsByEmail(ctx context.Context, companyID, email string) ([]model.Vendor, error)
	GetRFQByNumber(ctx context.Context, companyID, rfqNumber string) (*model.RFQ, error)
	ListRFQVendors(ctx context.Context, rfqID string) ([]model.RFQVendor, error)
	GetVendor(ctx context.Context, vendorID string) (*model.Vendor, error)
}

// Result carries the resolution outcome for one email. Reason is empty
// when MatchedVendor and RFQ are both set.
type Result struct {
	SenderAddr    string
	SenderName    string
	Vendors       []model.Vendor
	RFQ           *model.RFQ
	MatchedVendor *model.Vendor
	Reason        model.FailureReason
	Diagnostics   []string
}

// Resolved reports whether the email maps to an invited vendor and RFQ.
func (r *Result) Resolved() bool {
	return r.MatchedVendor != nil && r.RFQ != nil && r.Reason == ""
}

// personalDomains flags well-known personal email providers in
// vendor_not_in_rfq diagnostics.
var personalDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"yahoo.in":    true,
	"outlook.com": true,
	"hotmail.com": true,
	"rediffmail.com": true,
}

// Resolver resolves sender addresses and subject/body text to vendor
// and RFQ records.
type Resolver struct {
	dir    Directory
	strict bool
}

// New returns a resolver. With strict enabled, several invited vendors
// sharing one sender address escalate to manual review instead of
// picking the first.
func New(dir Directory, strict bool) *Resolver {
	return &Resolver{dir: dir, strict: strict}
}

// Resolve runs the five-step resolution for one email. A returned error
// means an infrastructure failure; match failures come back as a Result
// with a Reason instead.
func (r *Resolver) Resolve(ctx context.Context, fromHeader, subject, body, companyID string) (*Result, error) {
	res := &Result{}
	res.SenderName, res.SenderAddr = parseSender(fromHeader)

	// Step 1: vendor lookup by exact email.
	vendors, err := r.dir.FindVendorsByEmail(ctx, companyID, strings.ToLower(res.SenderAddr))
	if err != nil {
		return nil, err
	}
	res.Vendors = vendors
	if len(vendors) == 0 {
		res.Reason = model.ReasonNotAVendor
		return res, nil
	}

	// Step 2: RFQ number extraction, subject before body.
	token := ExtractRFQNumber(subject, body)
	if token == "" {
		res.Reason = model.ReasonNoRFQNumber
		return res, nil
	}

	// Step 3: RFQ lookup, retrying with an RFQ- prefix.
	rfq, err := r.dir.GetRFQByNumber(ctx, companyID, token)
	if err != nil {
		return nil, err
	}
	if rfq == nil && !strings.HasPrefix(strings.ToUpper(token), "RFQ") {
		rfq, err = r.dir.GetRFQByNumber(ctx, companyID, "RFQ-"+token)
		if err != nil {
			return nil, err
		}
	}
	if rfq == nil {
		res.Reason = model.ReasonRFQNotFound
		return res, nil
	}
	res.RFQ = rfq

	// Step 4: join candidate vendors against the RFQ's invitations.
	invitations, err := r.dir.ListRFQVendors(ctx, rfq.ID)
	if err != nil {
		return nil, err
	}
	invitedIDs := make(map[string]bool, len(invitations))
	for _, inv := range invitations {
		invitedIDs[inv.VendorID] = true
	}

	var invited []model.Vendor
	for _, v := range vendors {
		if invitedIDs[v.ID] {
			invited = append(invited, v)
		}
	}
	if len(invited) == 0 {
		res.Reason = model.ReasonVendorNotInRFQ
		res.Diagnostics = r.diagnoseNonInvited(ctx, res, invitations)
		return res, nil
	}

	// Step 5: first invited match wins; query order keeps this stable
	// within a single run.
	if len(invited) > 1 {
		if r.strict {
			res.Reason = model.ReasonAmbiguousVendor
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("%d invited vendors share sender address %s", len(invited), res.SenderAddr))
			return res, nil
		}
		zap.L().Warn("multiple invited vendors share sender address, picking first",
			zap.String("sender", res.SenderAddr),
			zap.String("rfq_number", rfq.RFQNumber),
			zap.Int("candidates", len(invited)),
		)
	}
	res.MatchedVendor = &invited[0]
	return res, nil
}

// diagnoseNonInvited annotates a vendor_not_in_rfq failure for human
// review. Heuristics only; they never auto-resolve a match.
func (r *Resolver) diagnoseNonInvited(ctx context.Context, res *Result, invitations []model.RFQVendor) []string {
	var notes []string

	senderDomain := emailDomain(res.SenderAddr)
	if personalDomains[senderDomain] {
		notes = append(notes, fmt.Sprintf("sender uses personal email domain %s", senderDomain))
	}

	for _, inv := range invitations {
		vendor, err := r.dir.GetVendor(ctx, inv.VendorID)
		if err != nil || vendor == nil {
			continue // diagnostics are best-effort
		}
		if res.SenderName != "" && containsFold(vendor.Name, res.SenderName) {
			notes = append(notes,
				fmt.Sprintf("sender display name %q resembles invited vendor %q (%s)", res.SenderName, vendor.Name, vendor.ID))
		}
		if d := emailDomain(vendor.Email); d != "" && d == senderDomain && !personalDomains[d] {
			notes = append(notes,
				fmt.Sprintf("sender shares domain %s with invited vendor %q (%s)", d, vendor.Name, vendor.ID))
		}
	}

	return notes
}

// parseSender parses an RFC 5322 From header, tolerating bare addresses.
func parseSender(fromHeader string) (name, addr string) {
	parsed, err := mail.ParseAddress(fromHeader)
	if err != nil {
		return "", strings.ToLower(strings.TrimSpace(fromHeader))
	}
	return parsed.Name, strings.ToLower(parsed.Address)
}

func emailDomain(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return strings.ToLower(addr[i+1:])
	}
	return ""
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)) ||
		strings.Contains(strings.ToLower(needle), strings.ToLower(haystack))
}
