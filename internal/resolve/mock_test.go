package resolve

import (
	"context"

	"github.com/milltech-erp/procure-cli/internal/model"
)

// mockDirectory implements Directory for testing.
type mockDirectory struct {
	vendorsByEmail map[string][]model.Vendor
	rfqsByNumber   map[string]*model.RFQ
	invitations    map[string][]model.RFQVendor
	vendorsByID    map[string]*model.Vendor
	rfqLookups     []string
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		vendorsByEmail: make(map[string][]model.Vendor),
		rfqsByNumber:   make(map[string]*model.RFQ),
		invitations:    make(map[string][]model.RFQVendor),
		vendorsByID:    make(map[string]*model.Vendor),
	}
}

func (m *mockDirectory) addVendor(v model.Vendor) {
	m.vendorsByEmail[v.Email] = append(m.vendorsByEmail[v.Email], v)
	vendor := v
	m.vendorsByID[v.ID] = &vendor
}

func (m *mockDirectory) addRFQ(rfq *model.RFQ, invitedVendorIDs ...string) {
	m.rfqsByNumber[rfq.RFQNumber] = rfq
	for _, id := range invitedVendorIDs {
		m.invitations[rfq.ID] = append(m.invitations[rfq.ID], model.RFQVendor{
			RFQID:    rfq.ID,
			VendorID: id,
		})
	}
}

func (m *mockDirectory) FindVendorsByEmail(_ context.Context, _, email string) ([]model.Vendor, error) {
	return m.vendorsByEmail[email], nil
}

func (m *mockDirectory) GetRFQByNumber(_ context.Context, _, rfqNumber string) (*model.RFQ, error) {
	m.rfqLookups = append(m.rfqLookups, rfqNumber)
	return m.rfqsByNumber[rfqNumber], nil
}

func (m *mockDirectory) ListRFQVendors(_ context.Context, rfqID string) ([]model.RFQVendor, error) {
	return m.invitations[rfqID], nil
}

func (m *mockDirectory) GetVendor(_ context.Context, vendorID string) (*model.Vendor, error) {
	return m.vendorsByID[vendorID], nil
}
