package sitecontent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch_ReturnsPageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Welcome to the site</html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher()
	got, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "<html>Welcome to the site</html>" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestFetch_ErrorsOnNon2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewFetcher()
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestFetch_CapsBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", maxBodyBytes+4096)))
	}))
	defer server.Close()

	fetcher := NewFetcher()
	got, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != maxBodyBytes {
		t.Fatalf("expected body capped at %d bytes, got %d", maxBodyBytes, len(got))
	}
}
