package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func chatBody(t *testing.T, content string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	require.NoError(t, err)
	return string(raw)
}

func newClient(rt roundTrip) *Client {
	return &Client{
		BaseURL:    "https://api.test/v1/chat/completions",
		APIKey:     "secret",
		Model:      "gpt-test",
		HTTPClient: &http.Client{Transport: rt},
	}
}

func TestParseSuccess(t *testing.T) {
	client := newClient(func(req *http.Request) *http.Response {
		assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
		var body chatRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body.Model)
		require.NotNil(t, body.ResponseFormat)
		assert.Equal(t, "json_object", body.ResponseFormat.Type)
		require.Len(t, body.Messages, 2)
		assert.Contains(t, body.Messages[1].Content, "detected language: es")
		assert.Contains(t, body.Messages[1].Content, "lecitina de girasol")

		return respond(200, chatBody(t, `{
			"detected_language": "Spanish",
			"ingredients": [
				{"original": "azúcar", "english": "sugar", "normalized": "sugar"},
				{"original": "lecitina de girasol", "english": "sunflower lecithin", "normalized": "sunflower lecithin"}
			],
			"allergens": []
		}`))
	})

	res, err := client.Parse(context.Background(), "azúcar, lecitina de girasol", "es")
	require.NoError(t, err)
	assert.Equal(t, "Spanish", res.DetectedLanguage)
	require.Len(t, res.Ingredients, 2)
	assert.Equal(t, "sunflower lecithin", res.Ingredients[1].Normalized)
}

func TestParseFencedJSON(t *testing.T) {
	client := newClient(func(req *http.Request) *http.Response {
		return respond(200, chatBody(t, "```json\n{\"ingredients\":[{\"original\":\"salt\"}]}\n```"))
	})
	res, err := client.Parse(context.Background(), "salt", "en")
	require.NoError(t, err)
	assert.Equal(t, "en", res.DetectedLanguage)
	assert.Equal(t, "salt", res.Ingredients[0].Original)
}

func TestParseRejectsBadOutput(t *testing.T) {
	cases := map[string]string{
		"not json":       "I cannot help with that",
		"no ingredients": `{"detected_language":"en","ingredients":[]}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			client := newClient(func(req *http.Request) *http.Response {
				return respond(200, chatBody(t, content))
			})
			_, err := client.Parse(context.Background(), "sugar", "en")
			assert.Error(t, err)
		})
	}
}

func TestParseError(t *testing.T) {
	client := newClient(func(req *http.Request) *http.Response {
		return respond(200, `{"error":{"message":"bad"}}`)
	})
	_, err := client.Parse(context.Background(), "sugar", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	client = newClient(func(req *http.Request) *http.Response {
		return respond(502, "upstream down")
	})
	_, err = client.Parse(context.Background(), "sugar", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestParseRequiresConfig(t *testing.T) {
	_, err := (&Client{}).Parse(context.Background(), "sugar", "en")
	assert.Error(t, err)

	_, err = newClient(nil).Parse(context.Background(), "  ", "en")
	assert.Error(t, err)
}

func TestParseEmptyChoices(t *testing.T) {
	client := newClient(func(req *http.Request) *http.Response {
		return respond(200, `{"choices":[]}`)
	})
	_, err := client.Parse(context.Background(), "sugar, salt", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
