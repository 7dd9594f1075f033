package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"codejudge/internal/testutil"
	pkgerrors "codejudge/pkg/errors"
)

func TestDoJSONSendsHeadersAndQuery(t *testing.T) {
	var gotQuery, gotKey, gotType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-Api-Key")
		gotType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		testutil.MustUnmarshalJSON(t, buf, &gotBody)
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", time.Second, func() map[string]string {
		return map[string]string{"X-Api-Key": "secret", "X-Empty": ""}
	})
	var out struct {
		Token string `json:"token"`
	}
	_, err := client.DoJSON(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/submissions",
		Query:  url.Values{"base64_encoded": {"true"}},
	}, map[string]string{"source_code": "aGk="}, &out)
	if err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	testutil.AssertEqual(t, out.Token, "abc")
	testutil.AssertEqual(t, gotQuery, "base64_encoded=true")
	testutil.AssertEqual(t, gotKey, "secret")
	testutil.AssertEqual(t, gotType, "application/json")
	testutil.AssertEqual(t, gotBody["source_code"], "aGk=")
}

func TestDoJSONNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"quota"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, nil)
	info, err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, Path: "/submissions/x"}, nil, nil)
	if !pkgerrors.Is(err, pkgerrors.JudgeTransportFailed) {
		t.Fatalf("err = %v, want JudgeTransportFailed", err)
	}
	testutil.AssertEqual(t, info.StatusCode, http.StatusTooManyRequests)
	testutil.AssertEqual(t, pkgerrors.GetError(err).Details["status"], http.StatusTooManyRequests)
}

func TestDoJSONMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, nil)
	var out map[string]interface{}
	_, err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, Path: "/"}, nil, &out)
	if !pkgerrors.Is(err, pkgerrors.JudgeTransportFailed) {
		t.Fatalf("err = %v, want JudgeTransportFailed", err)
	}
}

func TestDoJSONNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := New(addr, time.Second, nil)
	_, err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, Path: "/"}, nil, nil)
	if !pkgerrors.Is(err, pkgerrors.JudgeTransportFailed) {
		t.Fatalf("err = %v, want JudgeTransportFailed", err)
	}
}

func TestDoJSONCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := New(srv.URL, time.Second, nil)
	_, err := client.DoJSON(ctx, Request{Method: http.MethodGet, Path: "/"}, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled in chain", err)
	}
}

func TestDoRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"stdout":"`)
		_, _ = io.WriteString(w, strings.Repeat("a", maxResponseBodyBytes))
		_, _ = io.WriteString(w, `"}`)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second, nil)
	info, err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, Path: "/"}, nil, nil)
	if !pkgerrors.Is(err, pkgerrors.JudgeTransportFailed) {
		t.Fatalf("err = %v, want JudgeTransportFailed", err)
	}
	testutil.AssertContains(t, err.Error(), "exceeds")
	testutil.AssertTrue(t, info.Body == nil, "oversized body should not be returned")
}

func TestDoAcceptsBodyAtLimit(t *testing.T) {
	body := strings.Repeat("a", maxResponseBodyBytes)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second, nil)
	info, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	testutil.AssertEqual(t, len(info.Body), maxResponseBodyBytes)
}
