package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func promptContext() companion.PromptContext {
	return companion.PromptContext{
		PersonaID:         "tsundere",
		DisplayName:       "Tsundere",
		Mood:              "love",
		Intensity:         40,
		IntimacyLevel:     30,
		FlirtLevel:        50,
		TotalInteractions: 12,
		Memories:          []string{"my name is Kai"},
		Input:             "you're cute",
	}
}

func TestOpenAI_Complete(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "test-model",
		"choices": [{
			"index": 0,
			"finish_reason": "stop",
			"message": {"role": "assistant", "content": "  Hmph, as if I care.  "}
		}]
	}`, &seen)

	c, err := NewOpenAI(Config{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "test-model"})
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), promptContext())
	require.NoError(t, err)
	assert.Equal(t, "Hmph, as if I care.", text)

	assert.Equal(t, "test-model", seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Contains(t, seen.Messages[0].Content, "Tsundere")
	assert.Contains(t, seen.Messages[0].Content, "my name is Kai")
	assert.Equal(t, "user", seen.Messages[1].Role)
	assert.Equal(t, "you're cute", seen.Messages[1].Content)
}

func TestOpenAI_ServerError(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, `{"error": {"message": "down"}}`, nil)

	c, err := NewOpenAI(Config{BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), promptContext())
	assert.ErrorIs(t, err, companion.ErrCompletionUnavailable)
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "model": "m", "choices": []}`, nil)

	c, err := NewOpenAI(Config{BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), promptContext())
	assert.ErrorIs(t, err, companion.ErrCompletionUnavailable)
}

func TestNewOpenAI_RequiresBaseURL(t *testing.T) {
	_, err := NewOpenAI(Config{})
	assert.Error(t, err)
}
