package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Source reads one input from a URL.
type Source struct {
	url     string
	headers http.Header
	client  *Client
}

// NewSource returns a Source fetching url with client. headers are sent on
// every attempt.
func NewSource(url string, headers http.Header, client *Client) *Source {
	return &Source{url: url, headers: headers, client: client}
}

// URL returns the URL the source reads.
func (s *Source) URL() string { return s.url }

// Open issues the request and returns the response body. Any non-2xx final
// status is an error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, s.headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %s", s.url, resp.Status)
	}
	return resp.Body, nil
}
