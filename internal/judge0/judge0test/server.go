// Package judge0test provides a scripted in-process Judge0 server for tests.
package judge0test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"codejudge/internal/codec"
	"codejudge/internal/judge0"
)

// Script drives the fake server.
type Script struct {
	Token string
	// Polls are served to successive GET requests; the last one repeats.
	Polls []codec.ServiceResponse
	// Wait answers POST requests made with wait=true.
	Wait codec.ServiceResponse
	// CreateStatus, when set, is returned as the HTTP status of every POST.
	CreateStatus int
	// PollFailAt makes the n-th GET (1-based) fail with HTTP 500.
	PollFailAt int
}

// Server records the requests it receives.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	script  Script
	creates int
	polls   int
	last    judge0.SubmissionRequest
	headers http.Header
	query   string
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t *testing.T, script Script) *Server {
	t.Helper()
	if script.Token == "" {
		script.Token = "token-1"
	}
	s := &Server{script: script}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers = r.Header.Clone()
	s.query = r.URL.RawQuery

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/submissions":
		s.creates++
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &s.last)
		if s.script.CreateStatus != 0 {
			w.WriteHeader(s.script.CreateStatus)
			return
		}
		if r.URL.Query().Get("wait") == "true" {
			writeJSON(w, s.script.Wait)
			return
		}
		writeJSON(w, codec.ServiceResponse{Token: s.script.Token})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/submissions/"):
		s.polls++
		if strings.TrimPrefix(r.URL.Path, "/submissions/") != s.script.Token {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if s.script.PollFailAt == s.polls {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if len(s.script.Polls) == 0 {
			writeJSON(w, codec.ServiceResponse{Status: &codec.ServiceStatus{ID: codec.StatusIDProcessing}})
			return
		}
		idx := s.polls - 1
		if idx >= len(s.script.Polls) {
			idx = len(s.script.Polls) - 1
		}
		writeJSON(w, s.script.Polls[idx])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) Creates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

func (s *Server) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// LastSubmission returns the most recent creation payload.
func (s *Server) LastSubmission() judge0.SubmissionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// LastHeaders returns the headers of the most recent request.
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers
}

// LastQuery returns the raw query of the most recent request.
func (s *Server) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Status builds a poll response with the given status id.
func Status(id int) codec.ServiceResponse {
	return codec.ServiceResponse{Status: &codec.ServiceStatus{ID: id}}
}
