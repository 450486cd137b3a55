// Package imagegen turns text prompts into PNG artwork for rounds and
// catalog cards.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
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

// Generator renders a prompt into PNG bytes.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

var (
	ErrNoImageData        = errors.New("openai returned no image data")
	ErrUnsupportedPayload = errors.New("openai returned unsupported image payload")
)

// OpenAIImages calls the OpenAI Images API.
type OpenAIImages struct {
	apiKey  string
	baseURL string
	model   string
	size    string
	quality string
	client  *http.Client
}

// NewOpenAIImages builds an image client. Empty baseURL and model use the
// defaults.
func NewOpenAIImages(apiKey, baseURL, model string) *OpenAIImages {
	if baseURL == "" {
		baseURL = constants.OpenAIBaseURL
	}
	if model == "" {
		model = constants.OpenAIImageModel
	}
	return &OpenAIImages{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		size:    constants.OpenAIImageSizeDefault,
		quality: constants.OpenAIImageQualityDefault,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (o *OpenAIImages) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("%s not set", constants.EnvOpenAIAPIKey)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("empty image prompt")
	}

	payload := map[string]interface{}{
		"prompt":  prompt,
		"n":       1,
		"size":    o.size,
		"model":   o.model,
		"quality": o.quality,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+constants.OpenAIImagesGenerationsPath, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+o.apiKey)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("openai image generation failed: %d %s", resp.StatusCode, string(raw))
	}

	first := gjson.GetBytes(raw, "data.0")
	if !first.Exists() {
		return nil, ErrNoImageData
	}
	encoded := first.Get("b64_json").String()
	if encoded == "" {
		return nil, ErrUnsupportedPayload
	}
	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return img, nil
}
