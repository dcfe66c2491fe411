package extract

import (
	"fmt"
	"strings"

	"github.com/milltech-erp/procure-cli/internal/model"
)

const extractionSystemPrompt = `You are a procurement assistant extracting structured quotation data from vendor emails.

The email is a vendor's reply to a request for quotation (RFQ). Extract the quoted prices and terms into JSON matching this exact schema:

{
  "items": [
    {
      "item_code": "string, match against the requested items where possible",
      "description": "string",
      "quantity": number,
      "unit": "string",
      "unit_price": number,
      "total_amount": number,
      "delivery_days": integer,
      "warranty": "string"
    }
  ],
  "subtotal": number,
  "tax_amount": number,
  "total_amount": number,
  "payment_terms": "string",
  "delivery_terms": "string",
  "validity_days": integer,
  "special_conditions": "string"
}

Rules:
- Amounts are plain numbers without currency symbols or thousands separators.
- Omit fields the email does not state rather than guessing.
- If the email contains no price information at all, return {"items": []}.
- Return ONLY the JSON object, no commentary.`

// buildUserPrompt embeds the RFQ's requested items so the model can map
// quoted lines back to item codes.
func buildUserPrompt(emailBody, emailSubject string, rfq *model.RFQ) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "RFQ %s requested the following items:\n", rfq.RFQNumber)
	for _, item := range rfq.Items {
		fmt.Fprintf(&sb, "- %s: %s (qty %g %s)\n", item.ItemCode, item.Description, item.Quantity, item.Unit)
	}
	if len(rfq.Items) == 0 {
		sb.WriteString("(no item list on record)\n")
	}

	sb.WriteString("\nVendor email subject:\n")
	sb.WriteString(emailSubject)
	sb.WriteString("\n\nVendor email body:\n")
	sb.WriteString(emailBody)

	return sb.String()
}
