package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"lukachat/model"
)

func newTestClient(handler http.Handler, t *testing.T) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&Config{
		APIBaseURL: server.URL,
		APIKey:     "test-key",
		Model:      "gemini-test",
	})
}

func replyHandler(text string, calls *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		resp := model.GeminiResponse{
			Candidates: []model.GeminiCandidate{
				{Content: model.GeminiContent{Role: "model", Parts: []model.GeminiPart{{Text: text}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
}

func TestGenerateContent(t *testing.T) {
	var gotReq model.GeminiRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query, got %q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		replyHandler("Hello there!", nil).ServeHTTP(w, r)
	})

	c := newTestClient(handler, t)
	reply, err := c.GenerateContent(context.Background(), []model.GeminiContent{
		{Role: "user", Parts: []model.GeminiPart{{Text: "hi"}}},
	})
	if err != nil {
		t.Fatalf("GenerateContent error: %v", err)
	}
	if reply != "Hello there!" {
		t.Errorf("reply = %q", reply)
	}
	if gotReq.SystemInstruction == nil || !strings.Contains(gotReq.SystemInstruction.Parts[0].Text, "Luka") {
		t.Error("system instruction not sent with the dispatch")
	}
}

func TestGenerateContentModelNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"models/gemini-test is not found for API version v1beta"}}`))
	})

	c := newTestClient(handler, t)
	_, err := c.GenerateContent(context.Background(), []model.GeminiContent{
		{Role: "user", Parts: []model.GeminiPart{{Text: "hi"}}},
	})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestGenerateContentGenericFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	c := newTestClient(handler, t)
	_, err := c.GenerateContent(context.Background(), []model.GeminiContent{
		{Role: "user", Parts: []model.GeminiPart{{Text: "hi"}}},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrModelNotFound) {
		t.Fatalf("generic failure must not classify as model-not-found: %v", err)
	}
}

func TestGenerateContentRawBodyFallback(t *testing.T) {
	const body = `{"candidates":[]}`
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	c := newTestClient(handler, t)
	reply, err := c.GenerateContent(context.Background(), []model.GeminiContent{
		{Role: "user", Parts: []model.GeminiPart{{Text: "hi"}}},
	})
	if err != nil {
		t.Fatalf("GenerateContent error: %v", err)
	}
	if reply != body {
		t.Errorf("expected raw body fallback, got %q", reply)
	}
}

func TestSessionAccumulatesHistory(t *testing.T) {
	var (
		mu            sync.Mutex
		contentCounts []int
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.GeminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		contentCounts = append(contentCounts, len(req.Contents))
		mu.Unlock()
		replyHandler("ok", nil).ServeHTTP(w, r)
	})

	c := newTestClient(handler, t)
	session := NewSessionRegistry(c).Get("s1")

	for i := 0; i < 2; i++ {
		if _, err := session.Send(context.Background(), "turn"); err != nil {
			t.Fatalf("Send #%d error: %v", i+1, err)
		}
	}

	if len(contentCounts) != 2 || contentCounts[0] != 1 || contentCounts[1] != 3 {
		t.Errorf("dispatched content counts = %v, want [1 3]", contentCounts)
	}
	if got := session.Len(); got != 4 {
		t.Errorf("history length = %d, want 4", got)
	}
}

func TestSessionFailedDispatchLeavesHistory(t *testing.T) {
	var fail atomic.Bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		replyHandler("ok", nil).ServeHTTP(w, r)
	})

	c := newTestClient(handler, t)
	session := NewSessionRegistry(c).Get("s1")

	if _, err := session.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	fail.Store(true)
	if _, err := session.Send(context.Background(), "second"); err == nil {
		t.Fatal("expected an error")
	}
	if got := session.Len(); got != 2 {
		t.Errorf("failed turn must not be recorded, history length = %d, want 2", got)
	}
}

func TestSessionRegistryIsolation(t *testing.T) {
	c := newTestClient(replyHandler("ok", nil), t)
	registry := NewSessionRegistry(c)

	a := registry.Get("alice")
	b := registry.Get("bob")
	if a == b {
		t.Fatal("distinct ids must map to distinct sessions")
	}
	if registry.Get("alice") != a {
		t.Fatal("same id must map to the same session")
	}

	d1 := registry.Get("")
	d2 := registry.Get("")
	if d1 != d2 {
		t.Fatal("empty ids must share the default session")
	}
}

func TestResolveModelConfigured(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(replyHandler("ok", &calls), t)

	name, err := c.ResolveModel(context.Background(), "my-model")
	if err != nil {
		t.Fatalf("ResolveModel error: %v", err)
	}
	if name != "my-model" {
		t.Errorf("name = %q", name)
	}
	if calls.Load() != 0 {
		t.Errorf("a configured model must not be probed, got %d calls", calls.Load())
	}
}

func TestResolveModelProbesCandidates(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:countTokens") {
			json.NewEncoder(w).Encode(model.GeminiCountTokensResponse{TotalTokens: 1})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	c := newTestClient(handler, t)
	name, err := c.ResolveModel(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveModel error: %v", err)
	}
	if name != "gemini-2.0-flash" {
		t.Errorf("name = %q, want first candidate that responds", name)
	}
}

func TestResolveModelFallback(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := newTestClient(handler, t)
	name, err := c.ResolveModel(context.Background(), "")
	if err == nil {
		t.Fatal("expected a probe error when every candidate fails")
	}
	if name != DefaultModel() {
		t.Errorf("name = %q, want fallback %q", name, DefaultModel())
	}
}

func TestListModels(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.GeminiModelList{
			Models: []model.GeminiModelInfo{{Name: "models/a"}, {Name: "models/b"}},
		})
	})

	c := newTestClient(handler, t)
	names, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(names) != 2 || names[0] != "models/a" {
		t.Errorf("names = %v", names)
	}
}
