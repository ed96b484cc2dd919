package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/affidavit-tracker/internal/llm"
)

func TestGenerate_PostsVisionChatCompletion(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type     string `json:"type"`
				Text     string `json:"text"`
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"name\": \"Ram\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Model: "gpt-4o-mini", Timeout: 5 * time.Second}, nil)
	out, err := c.Generate(context.Background(), llm.UserFieldsPrompt, llm.Image{Data: []byte("abc"), MIMEType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Ram"}`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, llm.UserFieldsPrompt, got.Messages[0].Content[0].Text)
	assert.Equal(t, "data:image/png;base64,YWJj", got.Messages[0].Content[1].ImageURL.URL)
}

func TestGenerate_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), "p", llm.Image{Data: []byte{1}})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "openai status 429"))
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), "p", llm.Image{Data: []byte{1}})
	require.Error(t, err)
}

func TestGenerate_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c := NewClient(Config{}, nil)
	_, err := c.Generate(context.Background(), "p", llm.Image{Data: []byte{1}})
	require.Error(t, err)
}
