package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// FileSink writes one "<address>.onion" file per match containing the PEM
// encoded private key.
type FileSink struct {
	Dir string
}

// NewFileSink returns a sink writing into dir, creating it if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileSink{Dir: dir}, nil
}

// Path returns the file a record for address is written to.
func (s *FileSink) Path(address string) string {
	return filepath.Join(s.Dir, address+".onion")
}

// Write implements Sink. Existing files are never replaced.
func (s *FileSink) Write(ctx context.Context, rec oniongen.MatchRecord) error {
	path := s.Path(rec.Address)
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
		return err
	}

	if _, err := fh.Write(rec.EncodePEM()); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return fh.Close()
}
