package policies

import (
	"context"
	"io"
)

// PhotoStorage stores an object under key and returns its public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}
