package ambient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Loader defaults.
const (
	DefaultFetchTimeout  = 10 * time.Second
	DefaultMaxImageBytes = 20 << 20
)

// Loader obtains raw image bytes from a URL or a local path.
type Loader struct {
	allow    AllowList
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// NewLoader creates a Loader. A nil client uses a fresh http.Client; zero
// timeout and maxBytes use the defaults.
func NewLoader(allow AllowList, client *http.Client, timeout time.Duration, maxBytes int64) *Loader {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &Loader{allow: allow, client: client, timeout: timeout, maxBytes: maxBytes}
}

// Load returns the bytes for the request's source.
//
// # Errors
//
//   - ErrAccessDenied if the URL or path is not allow-listed
//   - ErrFetch on timeout, transport failure, non-2xx status, read failure
//     or when the image exceeds the size limit
func (l *Loader) Load(ctx context.Context, req *Request) ([]byte, error) {
	if req.URL != "" {
		return l.fetchURL(ctx, req.URL)
	}
	return l.readPath(ctx, req.Path)
}

func (l *Loader) fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	if !l.allow.AllowURL(rawURL) {
		return nil, newError(ErrAccessDenied, rawURL, fmt.Errorf("URL is not allow-listed"))
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(ErrFetch, rawURL, err)
	}

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, newError(ErrFetch, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(ErrFetch, rawURL, fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := readLimited(resp.Body, l.maxBytes)
	if err != nil {
		return nil, newError(ErrFetch, rawURL, err)
	}
	return data, nil
}

type readResult struct {
	data []byte
	err  error
}

func (l *Loader) readPath(ctx context.Context, path string) ([]byte, error) {
	resolved, err := l.allow.ResolvePath(path)
	if err != nil {
		return nil, newError(ErrAccessDenied, path, err)
	}

	done := make(chan readResult, 1)
	go func() {
		f, err := os.Open(resolved)
		if err != nil {
			done <- readResult{err: err}
			return
		}
		defer f.Close()
		data, err := readLimited(f, l.maxBytes)
		done <- readResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, newError(ErrFetch, path, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, newError(ErrFetch, path, res.err)
		}
		return res.data, nil
	}
}

// readLimited reads all of r, failing if it holds more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}
