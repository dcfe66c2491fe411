package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatQuotationNumber(t *testing.T) {
	assert.Equal(t, "QT-2025-0001", FormatQuotationNumber(2025, 1))
	assert.Equal(t, "QT-2025-0042", FormatQuotationNumber(2025, 42))
	assert.Equal(t, "QT-2026-1234", FormatQuotationNumber(2026, 1234))
	// Sequences past four digits widen rather than truncate.
	assert.Equal(t, "QT-2025-10001", FormatQuotationNumber(2025, 10001))
}

func TestBatchResult_AddReason(t *testing.T) {
	var b BatchResult
	b.AddReason(ReasonNotAVendor)
	b.AddReason(ReasonNotAVendor)
	b.AddReason(ReasonRFQNotFound)

	assert.Equal(t, 2, b.Reasons[ReasonNotAVendor])
	assert.Equal(t, 1, b.Reasons[ReasonRFQNotFound])
	assert.Zero(t, b.Reasons[ReasonNoRFQNumber])
}
