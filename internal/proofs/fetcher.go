package proofs

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const defaultFetchTimeout = 15 * time.Second

// TransferError reports a failed attempt to fetch proof bytes from a
// remote source. It is non-fatal to the surrounding profile operation:
// the caller proceeds without a proof reference.
type TransferError struct {
	URL        string
	StatusCode int
	cause      error
}

func (e *TransferError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("proofs: fetch %s: %v", e.URL, e.cause)
	}
	return fmt.Sprintf("proofs: fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *TransferError) Unwrap() error {
	return e.cause
}

// Fetcher downloads proof bytes from a remote URL. The transfer is
// bounded by its own timeout, independent of any store locking, so a
// slow or unreachable source cannot stall the rest of the service.
type Fetcher struct {
	client *http.Client
}

// NewFetcher constructs a Fetcher with the given transfer timeout.
// A non-positive timeout falls back to the default.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves the bytes at rawURL. Transport failures and non-2xx
// responses are both reported as *TransferError. The caller owns the
// returned body and must close it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransferError{URL: rawURL, cause: err}
	}

	response, err := f.client.Do(request)
	if err != nil {
		return nil, &TransferError{URL: rawURL, cause: err}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		response.Body.Close()
		return nil, &TransferError{URL: rawURL, StatusCode: response.StatusCode}
	}

	return response, nil
}
