package assistant_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kodbank/kodbank/internal/infrastructure/assistant"
)

func TestClientComplete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Hello from the bank."}},
			},
		})
	}))
	defer server.Close()

	client := assistant.NewClient(assistant.Config{
		URL:       server.URL,
		APIKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 100,
	})

	reply, err := client.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Hello from the bank." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("expected model in payload, got %v", gotBody["model"])
	}

	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %v", gotBody["messages"])
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("expected first message to be the system prompt, got %v", first)
	}
}

func TestClientCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer server.Close()

	client := assistant.NewClient(assistant.Config{URL: server.URL})

	if _, err := client.Complete(context.Background(), "hi"); err == nil {
		t.Fatalf("expected upstream error")
	}
}

func TestClientCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := assistant.NewClient(assistant.Config{URL: server.URL})

	reply, err := client.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply == "" {
		t.Fatalf("expected a fallback reply for empty choices")
	}
}

func TestClientCompleteMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := assistant.NewClient(assistant.Config{URL: server.URL})

	if _, err := client.Complete(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error for malformed response")
	}
}
