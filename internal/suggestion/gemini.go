package suggestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel = "gemini-1.5-flash"
)

var ErrEmptyResponse = errors.New("model returned no candidates")

type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewGemini(baseURL, model, apiKey string) *Gemini {
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	return &Gemini{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Generate(ctx context.Context, roomContext, relationship string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: Prompt(roomContext, relationship)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini.Generate: marshal body: %w", err)
	}

	endpoint := g.baseURL + "/models/" + url.PathEscape(g.model) + ":generateContent?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini.Generate: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini.Generate: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini.Generate: %w", &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message})
		}

		return "", fmt.Errorf("gemini.Generate: %w", &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)})
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini.Generate: decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("gemini.Generate: %w", ErrEmptyResponse)
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return strings.TrimSpace(text.String()), nil
}
