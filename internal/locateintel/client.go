package locateintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const systemPrompt = `You are a location parsing expert. Parse location strings into structured data with city, country, and region fields. Always respond with valid JSON.

Rules:
- Extract city, country, and region
- Use "Remote" for region if location indicates remote work
- Use full country names (e.g., "United States", not "US")
- If uncertain, use "Unknown" for that field
- For region, the values should be Americas, Europe, Asia, Oceania, Africa, Remote, or Unknown
- Confidence score: 0.1-1.0 based on clarity of input

For a single location, respond with:
{"city": "string", "country": "string", "region": "string", "confidence": float}

For multiple locations, respond with a JSON array in the same order as given:
[{"city": "string", "country": "string", "region": "string", "confidence": float}, ...]`

// rawParsed is the wire shape of one LLM-returned location record.
type rawParsed struct {
	City       string  `json:"city"`
	Country    string  `json:"country"`
	Region     string  `json:"region"`
	Confidence float64 `json:"confidence"`
}

func (r rawParsed) valid() bool {
	return r.City != "" && r.Country != "" && r.Region != ""
}

// chatClient speaks the OpenAI-compatible chat-completions wire format.
// Hand-rolled against net/http, matching the teacher's own LLM client
// (internal/llm/llm.go), since no official SDK appears anywhere in the
// retrieval pack.
type chatClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func newChatClient(apiKey, baseURL, model string, timeout time.Duration) *chatClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &chatClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string                `json:"model"`
	Messages       []chatMessage         `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *chatResponseFormat   `json:"response_format,omitempty"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete issues one chat-completions call and returns the raw assistant
// content, unparsed.
func (c *chatClient) complete(ctx context.Context, userPrompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("locateintel: llm returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("locateintel: llm returned no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("locateintel: empty response from llm")
	}
	return content, nil
}

// extractJSON strips a ```json ... ``` or ``` ... ``` code fence if present,
// otherwise returns the trimmed input as-is. The LLM response may be
// wrapped in prose or a fence; this must run before json.Unmarshal.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)

	if idx := strings.Index(s, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(s[start:], "```"); end != -1 {
			return strings.TrimSpace(s[start : start+end])
		}
	}
	if idx := strings.Index(s, "```"); idx != -1 {
		start := idx + len("```")
		if end := strings.Index(s[start:], "```"); end != -1 {
			return strings.TrimSpace(s[start : start+end])
		}
	}
	return s
}
