// Package extract turns raw vendor email text into a structured
// quotation payload, using an LLM with a deterministic regex fallback.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/milltech-erp/procure-cli/internal/model"
	"github.com/milltech-erp/procure-cli/internal/resilience"
	"github.com/milltech-erp/procure-cli/pkg/anthropic"
)

// currencyAmountRe matches currency-tagged numeric tokens with optional
// thousands separators and a two-decimal fraction.
var currencyAmountRe = regexp.MustCompile(`(?:₹|Rs\.?|INR|\$|€|£)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// ErrNoData signals that neither the LLM nor the fallback found any
// quotation data in the email. Upstream this routes the email to
// manual review rather than failing it.
var ErrNoData = errors.New("extract: no quotation data found")

// Extractor extracts quotation payloads from inbound email text.
type Extractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	retry     resilience.RetryConfig

	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// New returns an extractor backed by the given completion client. A nil
// client disables the LLM path entirely; only the fallback runs.
func New(client anthropic.Client, llmModel string, maxTokens int64) *Extractor {
	return &Extractor{
		client:    client,
		model:     llmModel,
		maxTokens: maxTokens,
		retry:     resilience.DefaultRetryConfig(),
	}
}

// Usage returns cumulative token counts across all LLM calls made by
// this extractor, for cost reporting.
func (e *Extractor) Usage() (input, output int64) {
	return e.inputTokens.Load(), e.outputTokens.Load()
}

// Extract parses quotation data from an email. LLM errors and malformed
// LLM output demote to the regex fallback; extraction never aborts the
// pipeline. Returns ErrNoData when nothing resembling a price is found.
func (e *Extractor) Extract(ctx context.Context, emailBody, emailSubject string, rfq *model.RFQ) (*model.QuotationPayload, error) {
	if e.client != nil {
		payload, err := e.extractLLM(ctx, emailBody, emailSubject, rfq)
		if err == nil {
			return payload, nil
		}
		zap.L().Warn("llm extraction failed, falling back to pattern scan",
			zap.String("rfq_number", rfq.RFQNumber),
			zap.Error(err),
		)
	}

	return fallbackExtract(emailSubject + "\n" + emailBody, rfq)
}

func (e *Extractor) extractLLM(ctx context.Context, emailBody, emailSubject string, rfq *model.RFQ) (*model.QuotationPayload, error) {
	req := anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    extractionSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildUserPrompt(emailBody, emailSubject, rfq)},
		},
	}

	cfg := e.retry
	cfg.OnRetry = resilience.RetryLogger("anthropic", "extract")
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	e.inputTokens.Add(resp.Usage.InputTokens)
	e.outputTokens.Add(resp.Usage.OutputTokens)

	cleaned := cleanJSON(resp.Text())

	var payload model.QuotationPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, errors.New("extract: malformed llm json")
	}
	if len(payload.Items) == 0 {
		return nil, errors.New("extract: llm returned no items")
	}

	return &payload, nil
}

// fallbackExtract scans for currency-tagged amounts and builds a single
// synthetic line item from the maximum amount found. Deliberately crude:
// it exists so a vendor reply is never lost just because the LLM was
// unavailable, not to produce accurate line items.
func fallbackExtract(text string, rfq *model.RFQ) (*model.QuotationPayload, error) {
	matches := currencyAmountRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, ErrNoData
	}

	maxAmount := 0.0
	for _, m := range matches {
		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if amount > maxAmount {
			maxAmount = amount
		}
	}
	if maxAmount == 0 {
		return nil, ErrNoData
	}

	itemCode := "ITEM-001"
	if len(rfq.Items) > 0 {
		itemCode = rfq.Items[0].ItemCode
	}

	return &model.QuotationPayload{
		Items: []model.QuotationLine{{
			ItemCode:    itemCode,
			Description: "Extracted from email text",
			Quantity:    1,
			UnitPrice:   maxAmount,
			TotalAmount: maxAmount,
		}},
		Subtotal:    maxAmount,
		TotalAmount: maxAmount,
	}, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
