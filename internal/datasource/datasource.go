// Package datasource opens the byte streams behind configured inputs.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"retailetl/internal/config"
	"retailetl/internal/datasource/file"
	"retailetl/internal/datasource/httpds"
)

// Source opens one input for reading. Callers close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// New returns the Source described by src.
func New(src config.Source) (Source, error) {
	switch src.Kind {
	case "file":
		if src.File.Path == "" {
			return nil, fmt.Errorf("file source: empty path")
		}
		return file.NewLocal(src.File.Path), nil
	case "http":
		if src.HTTP.URL == "" {
			return nil, fmt.Errorf("http source: empty url")
		}
		headers := make(http.Header, len(src.HTTP.Headers))
		for k, v := range src.HTTP.Headers {
			headers.Set(k, v)
		}
		client := httpds.NewClient(httpds.Config{
			Timeout:            src.HTTP.Timeout.D(),
			MaxRetries:         src.HTTP.MaxRetries,
			InsecureSkipVerify: src.HTTP.InsecureSkipVerify,
		})
		return httpds.NewSource(src.HTTP.URL, headers, client), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}
