// Package imaging is the image-transform collaborator boundary.
package imaging

import "context"

// Resizer transforms one uploaded image to the given bounds. The real
// implementation is an external service; the core only joins on results.
type Resizer interface {
	Resize(ctx context.Context, data []byte, width, height int) ([]byte, error)
}

// NopResizer passes images through untouched; development default.
type NopResizer struct{}

func (NopResizer) Resize(_ context.Context, data []byte, _, _ int) ([]byte, error) {
	return data, nil
}
