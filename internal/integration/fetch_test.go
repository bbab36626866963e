package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestFetchSendsHeadersAndQuery(t *testing.T) {
	var gotContentType, gotAuth, gotQuery, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("since")
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewHTTPFetchClient()
	query := url.Values{}
	query.Set("since", "2024-01-01")

	body, err := client.Fetch(context.Background(), srv.URL, "/nonprofits",
		map[string]string{"Authorization": "Bearer secret-token"}, query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(body) != `{"data":[]}` {
		t.Errorf("unexpected body: %s", body)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", gotContentType)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotQuery != "2024-01-01" {
		t.Errorf("expected since query param, got %q", gotQuery)
	}
	if gotPath != "/nonprofits" {
		t.Errorf("expected path /nonprofits, got %q", gotPath)
	}
}

func TestFetchNonOKStatusIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewHTTPFetchClient()
	_, err := client.Fetch(context.Background(), srv.URL, "/products", nil, nil)
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fe.Kind != FetchHTTPError {
		t.Errorf("expected kind %s, got %s", FetchHTTPError, fe.Kind)
	}
	if fe.Status != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", fe.Status)
	}
}

func TestFetchTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewHTTPFetchClient()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Fetch(ctx, srv.URL, "/social-posts", nil, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fe.Kind != FetchTimeout {
		t.Errorf("expected kind %s, got %s", FetchTimeout, fe.Kind)
	}
}

func TestFetchUnreachableHostIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewHTTPFetchClient()
	_, err := client.Fetch(context.Background(), srv.URL, "/wellness-data", nil, nil)
	if err == nil {
		t.Fatal("expected network error")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fe.Kind != FetchNetworkError {
		t.Errorf("expected kind %s, got %s", FetchNetworkError, fe.Kind)
	}
}
