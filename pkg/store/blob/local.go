package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

type localBucket struct{}

func NewLocalBucket() Bucket {
	return &localBucket{}
}

func (l *localBucket) Open(_ context.Context, loc Location) (io.ReadCloser, error) {
	return os.Open(loc.Path)
}

func (l *localBucket) Put(_ context.Context, loc Location, r io.Reader) error {
	if dir := filepath.Dir(loc.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(loc.Path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
