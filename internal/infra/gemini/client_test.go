package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra/gemini"
)

type capturedRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	SystemInstruction *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
}

func TestClient_Chat(t *testing.T) {
	var got capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key: got %q", r.URL.Query().Get("key"))
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"It is sunny."}]}}]}`))
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("test-key", "gemini-test", server.URL)

	reply, err := client.Chat(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "Be brief."},
		{Role: domain.RoleUser, Content: "How is the weather?"},
		{Role: domain.RoleAssistant, Content: "Where are you?"},
		{Role: domain.RoleUser, Content: "Madrid"},
	})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}

	if reply != "It is sunny." {
		t.Errorf("reply: got %q", reply)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "Be brief." {
		t.Errorf("system instruction: got %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 3 || got.Contents[1].Role != "model" {
		t.Errorf("contents: got %+v", got.Contents)
	}
}

func TestClient_ChatErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"message":"quota exceeded","code":429}}`))
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("k", "m", server.URL)

	_, err := client.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}})
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("Chat: got %v, want ErrServiceUnavailable", err)
	}
}

func TestClient_ChatNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("k", "m", server.URL)

	if _, err := client.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}
