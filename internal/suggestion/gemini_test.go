package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"What would you "},{"text":"have done? "}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "gemini-test", "secret")
	text, err := g.Generate(context.Background(), "the bank heist", "siblings")
	require.NoError(t, err)

	assert.Equal(t, "What would you have done?", text)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "Their relationship is: siblings.")
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "The current movie context is: the bank heist")
}

func TestGeminiErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
			return
		}
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := NewGemini(srv.URL, "", "bad").Generate(context.Background(), "ctx", "friends")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "API key not valid", httpErr.Message)

	_, err = NewGemini(srv.URL, "", "good").Generate(context.Background(), "ctx", "friends")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestPromptDefaultsRelationship(t *testing.T) {
	assert.Contains(t, Prompt("a chase", "  "), "Their relationship is: friends.")
}
