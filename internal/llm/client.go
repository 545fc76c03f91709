package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cognicore/puremark/pkg/puremark/parse"
)

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

var _ parse.Parser = (*Client)(nil)

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const parseSystem = `You are a food ingredient parser. Parse the ingredient list and return JSON.

For each ingredient:
1. "original": the ingredient as written, in its original language
2. "english": English translation (if not already English)
3. "normalized": lowercase, cleaned English name for matching

Also extract:
- "detected_language": the language of the ingredients
- "allergens": allergens mentioned (peanuts, tree nuts, milk, eggs, fish, shellfish, soy, wheat, sesame)

Return valid JSON only, no markdown.`

// Parse implements parse.Parser.
func (c *Client) Parse(ctx context.Context, zone, languageHint string) (parse.Result, error) {
	if strings.TrimSpace(zone) == "" {
		return parse.Result{}, fmt.Errorf("llm: empty ingredient zone")
	}
	out, err := c.complete(ctx, parseSystem, formatPrompt(zone, languageHint))
	if err != nil {
		return parse.Result{}, err
	}
	res, err := decodeResult(out)
	if err != nil {
		return parse.Result{}, err
	}
	if res.DetectedLanguage == "" {
		res.DetectedLanguage = languageHint
	}
	if err := res.Validate(); err != nil {
		return parse.Result{}, fmt.Errorf("llm: %w", err)
	}
	return res, nil
}

// complete sends one system and one user message and returns the JSON reply.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", fmt.Errorf("llm: base URL and model required")
	}
	req := chatRequest{
		Model:          c.Model,
		Messages:       []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
		MaxTokens:      2000,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	payload, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, body chatRequest) (*chatResponse, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("llm: http status %d", resp.StatusCode)
		}
		return nil, err
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("llm error: %s", payload.Error.Message)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("llm: http status %d", resp.StatusCode)
	}
	return &payload, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func formatPrompt(zone, languageHint string) string {
	if languageHint == "" {
		languageHint = "unknown"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Parse these ingredients (detected language: %s):\n\n%s\n\n", languageHint, zone)
	buf.WriteString("Return JSON with format:\n")
	buf.WriteString(`{"detected_language": "string", "ingredients": [{"original": "string", "english": "string", "normalized": "string"}], "allergens": ["string"]}`)
	buf.WriteString("\n")
	return buf.String()
}

// decodeResult reads the model's JSON, tolerating prose or code fences
// around the object.
func decodeResult(content string) (parse.Result, error) {
	var res parse.Result
	err := json.Unmarshal([]byte(content), &res)
	if err == nil {
		return res, nil
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return parse.Result{}, fmt.Errorf("llm: could not parse ingredient response: %w", err)
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &res); err != nil {
		return parse.Result{}, fmt.Errorf("llm: could not parse ingredient response: %w", err)
	}
	return res, nil
}
