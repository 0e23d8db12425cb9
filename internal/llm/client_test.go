package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type chatRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompletionServer(t *testing.T, reply string, choices bool, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization header = %q", auth)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}

		resp := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "deepseek-chat",
			"choices": []interface{}{},
		}
		if choices {
			resp["choices"] = []interface{}{
				map[string]interface{}{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]interface{}{"role": "assistant", "content": reply},
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("New() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestClient_Structure(t *testing.T) {
	var req chatRequest
	reply := `{'question_type': '判断题', 'content': '地球是圆的', 'answer': '对', 'options': []}`
	srv := newCompletionServer(t, reply, true, &req)
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := c.Structure(context.Background(), "地球是圆的 对")
	if err != nil {
		t.Fatalf("Structure() error = %v", err)
	}
	if got != reply {
		t.Errorf("Structure() = %q, want the reply verbatim", got)
	}

	if req.Model != DefaultModel {
		t.Errorf("model = %q, want %q", req.Model, DefaultModel)
	}
	if req.Stream {
		t.Error("request asked for streaming")
	}
	if len(req.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != systemPrompt {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || !strings.HasSuffix(req.Messages[1].Content, "完整问题：\n地球是圆的 对") {
		t.Errorf("user message = %q", req.Messages[1].Content)
	}
}

func TestClient_StructureNoChoices(t *testing.T) {
	srv := newCompletionServer(t, "", false, nil)
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	if _, err := c.Structure(context.Background(), "q"); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("Structure() error = %v, want ErrEmptyReply", err)
	}
}

func TestClient_StructureServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	if _, err := c.Structure(context.Background(), "q"); err == nil {
		t.Fatal("expected an error for a 503 reply")
	}
}

func TestClient_StructureTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: 50 * time.Millisecond}, nil)
	start := time.Now()
	if _, err := c.Structure(context.Background(), "q"); err == nil {
		t.Fatal("expected a timeout error")
	}
	if time.Since(start) > time.Second {
		t.Error("call outlived its timeout")
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("1+1=?")
	if strings.Contains(got, "{question_text}") {
		t.Error("placeholder was not replaced")
	}
	if !strings.HasPrefix(got, "请识别以下完整问题的详细内容") {
		t.Error("prompt prefix changed")
	}
	if !strings.HasSuffix(got, "1+1=?") {
		t.Error("block text not appended")
	}
}
