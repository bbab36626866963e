package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// fetchTimeout bounds total request latency for every external call. A
// remote platform that responds slower than this fails with a Timeout
// FetchError no matter what it would eventually have returned.
const fetchTimeout = 30 * time.Second

// FetchErrorKind classifies fetch failures.
type FetchErrorKind string

const (
	FetchTimeout      FetchErrorKind = "timeout"
	FetchHTTPError    FetchErrorKind = "http_error"
	FetchNetworkError FetchErrorKind = "network_error"
)

// FetchError describes a failed call to an external platform. The client
// never retries; retry policy belongs to the caller.
type FetchError struct {
	Kind   FetchErrorKind
	Status int
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPError:
		return fmt.Sprintf("external API error %d: %s", e.Status, e.Detail)
	case FetchTimeout:
		return fmt.Sprintf("external API timeout: %s", e.Detail)
	default:
		return fmt.Sprintf("external API network error: %s", e.Detail)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is (or wraps) a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// FetchClient retrieves data from external platform APIs.
type FetchClient interface {
	Fetch(ctx context.Context, baseURL, path string, headers map[string]string, query url.Values) ([]byte, error)
}

// HTTPFetchClient is the production FetchClient backed by net/http.
type HTTPFetchClient struct {
	client *http.Client
}

// NewHTTPFetchClient creates a fetch client with the standard 30s bound.
func NewHTTPFetchClient() *HTTPFetchClient {
	return &HTTPFetchClient{
		client: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// Fetch performs a GET against baseURL+path and returns the response body.
// It always sends Content-Type: application/json and merges caller-supplied
// headers (typically Authorization) on top.
func (c *HTTPFetchClient) Fetch(ctx context.Context, baseURL, path string, headers map[string]string, query url.Values) ([]byte, error) {
	target := baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetworkError, Detail: err.Error(), Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &FetchError{Kind: FetchTimeout, Detail: err.Error(), Err: err}
		}
		return nil, &FetchError{Kind: FetchNetworkError, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, &FetchError{Kind: FetchTimeout, Detail: err.Error(), Err: err}
		}
		return nil, &FetchError{Kind: FetchNetworkError, Detail: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Kind:   FetchHTTPError,
			Status: resp.StatusCode,
			Detail: string(body),
		}
	}

	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}
