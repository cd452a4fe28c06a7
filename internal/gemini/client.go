// Package gemini calls the Google Generative Language API to turn a free
// text description (or a screenshot) into a template document.
package gemini

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

	"templet/api/internal/template"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
)

// ErrEmptyResponse means the model answered with no text at all.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Client generates templates through the generateContent endpoint. The zero
// value is not usable; construct with New.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// New builds a client. model and baseURL fall back to defaults when empty,
// so config can leave them unset.
func New(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Role  string         `json:"role"`
		Parts []generatePart `json:"parts"`
	} `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate produces a template from a free text description.
func (c *Client) Generate(ctx context.Context, description string) (*template.Template, error) {
	prompt := templateGenerationPrompt + "\n\nUser request: " + description
	text, err := c.generateContent(ctx, []generatePart{{Text: prompt}})
	if err != nil {
		return nil, err
	}
	return template.ParseGenerated(text)
}

// GenerateFromImage produces a template by analyzing an image, optionally
// steered by an extra description.
func (c *Client) GenerateFromImage(ctx context.Context, data []byte, mimeType, description string) (*template.Template, error) {
	prompt := imageAnalysisPrompt
	if description != "" {
		prompt += "\n\nAdditional user request: " + description
	}
	parts := []generatePart{
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}},
		{Text: prompt},
	}
	text, err := c.generateContent(ctx, parts)
	if err != nil {
		return nil, err
	}
	return template.ParseGenerated(text)
}

func (c *Client) generateContent(ctx context.Context, parts []generatePart) (string, error) {
	var request generateRequest
	request.Contents = append(request.Contents, struct {
		Role  string         `json:"role"`
		Parts []generatePart `json:"parts"`
	}{Role: "user", Parts: parts})

	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("gemini api %s (%d): %s", decoded.Error.Status, decoded.Error.Code, decoded.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sb strings.Builder
	for _, candidate := range decoded.Candidates {
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		break
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
