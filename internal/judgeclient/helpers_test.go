package judgeclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/judge0"
	"codejudge/internal/judgeclient"
)

type recorder struct {
	mu      sync.Mutex
	updates []judgeclient.StatusUpdate
}

func (r *recorder) ReportStatus(_ context.Context, update judgeclient.StatusUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.updates))
	for _, u := range r.updates {
		out = append(out, u.Text)
	}
	return out
}

// execServer fakes the single-shot execution endpoint.
type execServer struct {
	*httptest.Server

	mu     sync.Mutex
	calls  int
	last   codec.ExecutionRequest
	status int
	body   string
}

func newExecServer(t *testing.T, resp codec.ServiceResponse) *execServer {
	t.Helper()
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response failed: %v", err)
	}
	s := &execServer{status: http.StatusOK, body: string(data)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls++
		if r.Method != http.MethodPost || r.URL.Path != judgeclient.DefaultExecutionPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &s.last)
		w.WriteHeader(s.status)
		_, _ = io.WriteString(w, s.body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *execServer) respondRaw(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

func (s *execServer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *execServer) lastRequest() codec.ExecutionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func newClient(t *testing.T, judgeURL, execURL string, mutate ...func(*judgeclient.Config)) *judgeclient.Client {
	t.Helper()
	cfg := judgeclient.Config{
		ExecutionURL:    execURL,
		Judge:           judge0.Config{BaseURL: judgeURL, APIKey: "test-key"},
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 20,
		PollDeadline:    5 * time.Second,
		RequestTimeout:  2 * time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	client, err := judgeclient.New(cfg)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func accepted(stdout string) codec.ServiceResponse {
	return codec.ServiceResponse{
		Status: &codec.ServiceStatus{ID: codec.StatusIDAccepted, Description: "Accepted"},
		Stdout: codec.EncodeOptional(stdout),
	}
}

var demoCase = judgeclient.TestCase{Stdin: "4\n1\n2\n3\n4\n", ExpectedOutput: "1\n2\n6\n24"}

func judge0Config(baseURL, key string) judge0.Config {
	return judge0.Config{BaseURL: baseURL, APIKey: key}
}
