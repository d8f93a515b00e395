package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"accident-dashboard-api/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Assistant task kinds.
const (
	TaskShortCode    = "short_code"
	TaskDetailedCode = "detailed_code"
	TaskFixCode      = "fix_code"
	TaskExplainCode  = "explain_code"
)

// Models offered to callers; the first is the default.
var AssistantModels = []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-pro"}

var (
	ErrEmptyPrompt   = errors.New("prompt is empty")
	ErrMissingAPIKey = errors.New("api key is required")
	ErrInvalidAPIKey = errors.New("api key is not valid")
	ErrUnknownModel  = errors.New("unknown model")
)

var taskInstructions = map[string]string{
	TaskShortCode:    "Genera un código corto y conciso, solo el código, basado en esta solicitud: %s",
	TaskDetailedCode: "Genera un código extenso y detallado, incluyendo comentarios, ejemplos de uso y explicaciones, basado en esta solicitud: %s",
	TaskFixCode:      "Analiza y corrige el siguiente código. En la respuesta, primero explica brevemente los errores y la solución, y luego proporciona el código corregido en un bloque de código Markdown:\n\n%s",
	TaskExplainCode:  "Analiza el siguiente código y explica detalladamente qué hace, cómo funciona cada parte y su propósito. Utiliza un tono educativo y claro:\n\n%s",
}

// BuildInstruction wraps the prompt for a task kind. Unknown kinds pass the
// prompt through.
func BuildInstruction(task, prompt string) string {
	tmpl, ok := taskInstructions[task]
	if !ok {
		return prompt
	}
	return fmt.Sprintf(tmpl, prompt)
}

// TextGenerator performs one generation round trip.
type TextGenerator interface {
	Generate(ctx context.Context, apiKey, model, prompt string) (string, error)
}

// GenAIGenerator calls the Gemini API. A client is built per call because the
// key belongs to the caller.
type GenAIGenerator struct{}

func (GenAIGenerator) Generate(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

type AssistRequest struct {
	Prompt string `json:"prompt"`
	Task   string `json:"task"`
	Model  string `json:"model"`
	APIKey string `json:"api_key"`
}

type AssistResponse struct {
	Model string `json:"model"`
	Task  string `json:"task,omitempty"`
	Text  string `json:"text"`
}

type Assistant struct {
	gen        TextGenerator
	defaultKey string
	model      string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewAssistant(cfg config.AssistantConfig, gen TextGenerator, logger *zap.Logger) *Assistant {
	if gen == nil {
		gen = GenAIGenerator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.DefaultModel
	if model == "" {
		model = AssistantModels[0]
	}
	return &Assistant{gen: gen, defaultKey: cfg.APIKey, model: model, timeout: cfg.Timeout, logger: logger}
}

func knownModel(m string) bool {
	for _, known := range AssistantModels {
		if m == known {
			return true
		}
	}
	return false
}

// Respond runs one request. The key in the request wins over the configured
// one and is never stored.
func (a *Assistant) Respond(ctx context.Context, req AssistRequest) (*AssistResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		key = a.defaultKey
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	model := req.Model
	if model == "" {
		model = a.model
	}
	if !knownModel(model) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.gen.Generate(ctx, key, model, BuildInstruction(req.Task, prompt))
	if err != nil {
		upstreamRequests.WithLabelValues("assistant", "error").Inc()
		if strings.Contains(err.Error(), "API key") {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
		}
		a.logger.Warn("assistant call failed", zap.String("model", model), zap.Error(err))
		return nil, fmt.Errorf("generate content: %w", err)
	}
	upstreamRequests.WithLabelValues("assistant", "ok").Inc()
	return &AssistResponse{Model: model, Task: req.Task, Text: text}, nil
}
