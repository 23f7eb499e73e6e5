package provider

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// capturedRequest is what a fake provider saw.
type capturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Raw    string
	Body   map[string]any
}

// fakeProvider records every request and answers with a canned status
// and body, standing in for the upstream API.
type fakeProvider struct {
	*httptest.Server

	mu       sync.Mutex
	requests []capturedRequest
}

func newFakeProvider(t *testing.T, status int, response string) *fakeProvider {
	t.Helper()

	f := &fakeProvider{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Raw:    string(raw),
			Body:   body,
		})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeProvider) last(t *testing.T) capturedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("fake provider received no requests")
	}
	return f.requests[len(f.requests)-1]
}

// messages pulls the chat-completions "messages" array out of a decoded
// body as role/content pairs.
func messages(t *testing.T, body map[string]any) []chatMessage {
	t.Helper()
	raw, ok := body["messages"].([]any)
	if !ok {
		t.Fatalf("body has no messages array: %v", body)
	}
	var out []chatMessage
	for _, m := range raw {
		mm := m.(map[string]any)
		out = append(out, chatMessage{Role: mm["role"].(string), Content: mm["content"].(string)})
	}
	return out
}

// closedServerURL returns the URL of a server that is no longer
// listening, so requests to it fail at the transport level.
func closedServerURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

const chatOK = `{
  "id": "gen-1",
  "model": "anthropic/claude-3.5-sonnet",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "The cat was seated."}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
}`
