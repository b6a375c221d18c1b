package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

// extractionPrompt asks the vision model for the structured expense fields
const extractionPrompt = `Analyze this receipt and extract the following information in JSON format:
{
  "date": "YYYY-MM-DD format",
  "merchant": "Merchant/Vendor name",
  "description": "Brief description of the expense",
  "amount": "Total amount as decimal number only",
  "currency": "Currency code (USD, EUR, etc.)",
  "category": "Expense category (Meals, Transportation, Office Supplies, Entertainment, Lodging, Other)",
  "payment_type": "Credit Card",
  "city": "City if available",
  "items": "Brief list of items purchased"
}

Please extract the exact values from the receipt. For the category, choose the most appropriate one based on what was purchased. Return ONLY the JSON object, no other text.`

// Config holds vision extraction configuration
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Extractor extracts expense data from receipt images using a vision model
type Extractor struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewExtractor creates a new receipt extractor
func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	return &Extractor{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// Extract converts a receipt file into structured expense data. The receipt
// is normalized to JPEG first so PDFs and HEIC photos work too.
func (e *Extractor) Extract(ctx context.Context, data []byte, contentType string) (*entity.ExtractedExpense, error) {
	jpegData, err := NormalizeToJPEG(data, contentType)
	if err != nil {
		e.logger.Error("Failed to normalize receipt image", zap.Error(err))
		return nil, fmt.Errorf("failed to normalize receipt image: %w", err)
	}

	base64Img := base64.StdEncoding.EncodeToString(jpegData)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert at reading receipts and invoices. You extract merchant, date, amount and category data with perfect accuracy. Always respond with valid JSON.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    fmt.Sprintf("data:image/jpeg;base64,%s", base64Img),
							Detail: openai.ImageURLDetailHigh,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractionPrompt,
					},
				},
			},
		},
	})
	if err != nil {
		e.logger.Error("Vision API call failed", zap.Error(err))
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from vision API")
	}

	extracted, err := ParseExtraction(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Error("Failed to parse extraction result",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, err
	}

	e.logger.Info("Receipt data extracted",
		zap.String("merchant", extracted.Merchant),
		zap.Float64("amount", extracted.Amount),
		zap.String("category", extracted.Category))

	return extracted, nil
}

// rawExtraction mirrors the model response; amount may arrive as a string
// with currency symbols
type rawExtraction struct {
	Date        string          `json:"date"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	PaymentType string          `json:"payment_type"`
	City        string          `json:"city"`
	Items       string          `json:"items"`
}

// ParseExtraction parses the model response into an ExtractedExpense.
// Tolerates markdown code fences and string amounts like "$1,234.56".
func ParseExtraction(content string) (*entity.ExtractedExpense, error) {
	jsonStr := stripCodeFence(content)

	var raw rawExtraction
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return nil, err
	}

	extracted := &entity.ExtractedExpense{
		Date:        raw.Date,
		Merchant:    raw.Merchant,
		Description: raw.Description,
		Amount:      amount,
		Currency:    raw.Currency,
		Category:    entity.NormalizeCategory(raw.Category),
		PaymentType: raw.PaymentType,
		City:        raw.City,
		Items:       raw.Items,
	}

	if extracted.Currency == "" {
		extracted.Currency = entity.DefaultCurrency
	}
	if extracted.PaymentType == "" {
		extracted.PaymentType = entity.DefaultPaymentType
	}

	return extracted, nil
}

// stripCodeFence removes surrounding ```json fences when the model ignores
// the plain-JSON instruction
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	content = strings.TrimPrefix(content, "json")
	if i := strings.LastIndex(content, "```"); i >= 0 {
		content = content[:i]
	}
	return strings.TrimSpace(content)
}

// parseAmount accepts both JSON numbers and strings with currency noise
func parseAmount(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("extraction response has no amount")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unparseable amount %s", string(raw))
	}

	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), ",", ""))
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q: %w", s, err)
	}
	return n, nil
}
