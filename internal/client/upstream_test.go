package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"hlsgate/internal/config"
	"hlsgate/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Fetch: config.FetchConfig{
			TimeoutSeconds:  10,
			MaxRedirects:    5,
			IdleConnections: 10,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fetchRequest(t *testing.T, rawURL string) *model.FetchRequest {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %q: %v", rawURL, err)
	}
	return &model.FetchRequest{Ctx: context.Background(), Target: u}
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Probe"); got != "1" {
			t.Errorf("X-Probe = %q, want %q", got, "1")
		}
		w.Header().Set("Content-Type", "video/mp2t")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("segment-bytes"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), testLogger(), nil)

	header := http.Header{}
	header.Set("X-Probe", "1")
	resp, err := f.Fetch(fetchRequest(t, srv.URL+"/seg1.ts"), header)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if string(resp.Body) != "segment-bytes" {
		t.Errorf("body = %q, want %q", resp.Body, "segment-bytes")
	}
	if resp.FinalURL.Path != "/seg1.ts" {
		t.Errorf("FinalURL.Path = %q, want %q", resp.FinalURL.Path, "/seg1.ts")
	}
}

func TestFetcher_Fetch_Error(t *testing.T) {
	f := NewFetcher(testConfig(), testLogger(), nil)

	_, err := f.Fetch(fetchRequest(t, "http://127.0.0.1:1/nonexistent"), http.Header{})
	if err == nil {
		t.Fatal("Fetch() expected error for unreachable host, got nil")
	}
}

func TestFetcher_Fetch_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	u, _ := url.Parse(srv.URL + "/slow")
	fr := &model.FetchRequest{Ctx: ctx, Target: u}
	if _, err := f.Fetch(fr, http.Header{}); err == nil {
		t.Fatal("Fetch() expected error for canceled context, got nil")
	}
}

func TestFetcher_Fetch_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hop/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("done"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(testConfig(), testLogger(), nil)

	resp, err := f.Fetch(fetchRequest(t, srv.URL+"/hop/1"), http.Header{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.FinalURL.Path != "/final" {
		t.Errorf("FinalURL.Path = %q, want %q", resp.FinalURL.Path, "/final")
	}
	if string(resp.Body) != "done" {
		t.Errorf("body = %q, want %q", resp.Body, "done")
	}
}

func TestFetcher_Fetch_RedirectLimitExceeded(t *testing.T) {
	hops := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", hops), http.StatusFound)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), testLogger(), nil)

	_, err := f.Fetch(fetchRequest(t, srv.URL+"/hop/0"), http.Header{})
	if err == nil {
		t.Fatal("Fetch() expected error for endless redirect chain, got nil")
	}
}
