package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericogr/veilborn/internal/constants"

	"github.com/tidwall/gjson"
)

// OpenAINarrator calls the OpenAI Chat Completions API.
type OpenAINarrator struct {
	apiKey       string
	baseURL      string
	model        string
	systemPrompt string
	client       *http.Client
}

// NewOpenAINarrator builds a narrator. Empty baseURL, model and prompt use
// the defaults.
func NewOpenAINarrator(apiKey, baseURL, model, systemPrompt string) *OpenAINarrator {
	if baseURL == "" {
		baseURL = constants.OpenAIBaseURL
	}
	if model == "" {
		model = constants.OpenAIChatModel
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &OpenAINarrator{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		systemPrompt: systemPrompt,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *OpenAINarrator) Narrate(ctx context.Context, p Payload) (Narration, error) {
	if o.apiKey == "" {
		return Narration{}, fmt.Errorf("%s not set", constants.EnvOpenAIAPIKey)
	}
	body, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return Narration{}, err
	}

	payload := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": o.systemPrompt},
			{"role": "user", "content": "Narrate this Veilborn battle round:\n\n" + string(body)},
		},
		"response_format":       map[string]string{"type": "json_object"},
		"max_completion_tokens": constants.OpenAINarrationMaxTokens,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+constants.OpenAIChatCompletionsPath, bytes.NewBuffer(b))
	if err != nil {
		return Narration{}, err
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+o.apiKey)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := o.client.Do(req)
	if err != nil {
		return Narration{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Narration{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Narration{}, fmt.Errorf("openai error: %d %s", resp.StatusCode, string(raw))
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() || strings.TrimSpace(content.String()) == "" {
		return Narration{}, errors.New("empty response from OpenAI")
	}
	return Parse(content.String())
}
