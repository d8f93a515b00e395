package services

import (
	"context"
	"errors"
	"testing"

	"accident-dashboard-api/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	gotKey, gotModel, gotPrompt string
	err                         error
}

func (f *fakeGenerator) Generate(ctx context.Context, apiKey, model, prompt string) (string, error) {
	f.gotKey, f.gotModel, f.gotPrompt = apiKey, model, prompt
	if f.err != nil {
		return "", f.err
	}
	return "ok: " + model, nil
}

func TestAssistantRespond(t *testing.T) {
	gen := &fakeGenerator{}
	a := NewAssistant(config.AssistantConfig{}, gen, nil)

	resp, err := a.Respond(context.Background(), AssistRequest{Prompt: "área de un círculo", Task: TaskShortCode, APIKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, "ok: gemini-2.5-flash", resp.Text)
	assert.Equal(t, "k1", gen.gotKey)
	assert.Equal(t, "Genera un código corto y conciso, solo el código, basado en esta solicitud: área de un círculo", gen.gotPrompt)
}

func TestAssistantValidation(t *testing.T) {
	a := NewAssistant(config.AssistantConfig{}, &fakeGenerator{}, nil)

	_, err := a.Respond(context.Background(), AssistRequest{Prompt: "  ", APIKey: "k"})
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = a.Respond(context.Background(), AssistRequest{Prompt: "hola"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = a.Respond(context.Background(), AssistRequest{Prompt: "hola", APIKey: "k", Model: "gpt-4"})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestAssistantFallsBackToConfiguredKey(t *testing.T) {
	gen := &fakeGenerator{}
	a := NewAssistant(config.AssistantConfig{APIKey: "server-key", DefaultModel: "gemini-2.5-pro"}, gen, nil)

	resp, err := a.Respond(context.Background(), AssistRequest{Prompt: "hola"})
	require.NoError(t, err)
	assert.Equal(t, "server-key", gen.gotKey)
	assert.Equal(t, "gemini-2.5-pro", resp.Model)
}

func TestAssistantErrors(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("Error 400: API key not valid. Please pass a valid API key.")}
	a := NewAssistant(config.AssistantConfig{}, gen, nil)

	_, err := a.Respond(context.Background(), AssistRequest{Prompt: "hola", APIKey: "bad"})
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	gen.err = errors.New("deadline exceeded")
	_, err = a.Respond(context.Background(), AssistRequest{Prompt: "hola", APIKey: "k"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAPIKey)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestBuildInstruction(t *testing.T) {
	for task := range taskInstructions {
		assert.Contains(t, BuildInstruction(task, "PROMPT"), "PROMPT", task)
	}
	assert.Equal(t, "raw", BuildInstruction("other", "raw"))
}
