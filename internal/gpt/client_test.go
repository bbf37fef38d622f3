package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

func TestClientComplete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  TIMING \n"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("", "test-key", logger.New(logger.LevelOff, nil), WithBaseURL(srv.URL+"/v1"), WithModel("gpt-test"))
	reply, err := c.Complete(context.Background(), domain.CompletionRequest{
		System:      "sys",
		Prompt:      "classify",
		Temperature: 0.1,
		MaxTokens:   20,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "TIMING" {
		t.Errorf("reply = %q, want TIMING", reply)
	}
	if got.Model != "gpt-test" || got.MaxTokens != 20 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "classify" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestClientCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("", "k", logger.New(logger.LevelOff, nil), WithBaseURL(srv.URL+"/v1"))
			_, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
			var ce *domain.CompletionError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want CompletionError", err)
			}
		})
	}
}
