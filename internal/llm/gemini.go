package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini pricing (per million tokens)
const (
	geminiFlashInputPricePerMillion  = 0.30
	geminiFlashOutputPricePerMillion = 2.50
	geminiProInputPricePerMillion    = 1.25
	geminiProOutputPricePerMillion   = 10.00
	geminiLiteInputPricePerMillion   = 0.10
	geminiLiteOutputPricePerMillion  = 0.40
)

// GeminiConfig configures a GeminiGenerator.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Empty uses the public endpoint.
	BaseURL string
	// HTTPClient overrides the transport. Nil uses the SDK default.
	HTTPClient *http.Client
}

// GeminiGenerator uses Google's Gemini API as the generation capability.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Model returns the model name requests are sent to.
func (g *GeminiGenerator) Model() string { return g.model }

// Generate sends the prompt text first and then every image inline. The
// answer is returned as a sequence of {text} parts.
func (g *GeminiGenerator) Generate(ctx context.Context, in Input) (any, error) {
	parts := make([]*genai.Part, 0, len(in.Prompt.Parts)+len(in.Images))
	for _, p := range in.Prompt.Parts {
		if p.Image == nil && p.Text != "" {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}
	for _, img := range in.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIMEType},
		})
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if in.Prompt.SystemInstructions != "" {
		config.SystemInstruction = genai.NewContentFromText(in.Prompt.SystemInstructions, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, config)
	if err != nil {
		return nil, classifyError(err)
	}

	usage := usageOf(g.model, result)
	zerolog.Ctx(ctx).Info().
		Str("model", g.model).
		Str("variant", string(in.Prompt.Variant)).
		Str("mode", string(in.Prompt.Mode)).
		Int("imageCount", len(in.Images)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("editorial llm call")

	if err := blockedError(result); err != nil {
		return nil, err
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, editorial.NewError(editorial.KindNoJSONInResponse, "empty response from gemini")
	}

	var out []any
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		out = append(out, map[string]any{"text": part.Text})
	}
	return out, nil
}

func blockedError(result *genai.GenerateContentResponse) error {
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return editorial.Errorf(editorial.KindContentNotAllowed, "prompt blocked: %s", fb.BlockReason)
	}
	if len(result.Candidates) == 0 || result.Candidates[0] == nil {
		return nil
	}
	switch reason := result.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return editorial.Errorf(editorial.KindContentNotAllowed, "response blocked: %s", reason)
	}
	return nil
}

// classifyError maps SDK and transport failures onto failure kinds.
func classifyError(err error) error {
	if e := (*editorial.Error)(nil); errors.As(err, &e) {
		return e
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyStatus(apiErrPtr.Code, apiErrPtr.Message, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return editorial.Wrap(editorial.KindGatewayError, "model call timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return editorial.Wrap(editorial.KindGatewayError, "model call timed out", err)
	}
	return editorial.Wrap(editorial.KindNetworkError, "model unreachable", err)
}

func classifyStatus(code int, message string, err error) error {
	msg := fmt.Sprintf("gemini returned %d", code)
	if message != "" {
		msg += ": " + message
	}
	switch {
	case code == http.StatusBadRequest:
		return editorial.Wrap(editorial.KindInvalidInput, msg, err)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		// our credentials, not the caller's; a retry gets the same answer
		return editorial.Permanently(editorial.KindServerError, msg, err)
	case code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500:
		return editorial.Wrap(editorial.KindGatewayError, msg, err)
	default:
		return editorial.Wrap(editorial.KindServerError, msg, err)
	}
}

func usageOf(model string, result *genai.GenerateContentResponse) Usage {
	usage := Usage{}
	if result == nil || result.UsageMetadata == nil {
		return usage
	}
	usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
	usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount) + int64(result.UsageMetadata.ThoughtsTokenCount)
	usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
	inputPrice, outputPrice := pricing(model)
	usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens, inputPrice, outputPrice)
	return usage
}

func pricing(model string) (input, output float64) {
	switch {
	case strings.Contains(model, "lite"):
		return geminiLiteInputPricePerMillion, geminiLiteOutputPricePerMillion
	case strings.Contains(model, "pro"):
		return geminiProInputPricePerMillion, geminiProOutputPricePerMillion
	default:
		return geminiFlashInputPricePerMillion, geminiFlashOutputPricePerMillion
	}
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
