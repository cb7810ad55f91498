package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/1siamBot/fisheye-engine/engine/core"
)

// Sink receives encoded frames. Open runs once before the first frame; an
// error there aborts the export before anything is rendered.
type Sink interface {
	Open() error
	WriteFrame(name string, data []byte) error
}

// DirSink writes frames as files in a directory
type DirSink struct {
	Dir string
}

// Open creates the directory if needed and checks it is a directory
func (s *DirSink) Open() error {
	if s.Dir == "" {
		return fmt.Errorf("export: no output directory: %w", core.ErrPlatformUnsupported)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("export: output directory %s: %w: %w", s.Dir, core.ErrPlatformUnsupported, err)
	}
	fi, err := os.Stat(s.Dir)
	if err != nil {
		return fmt.Errorf("export: output directory %s: %w: %w", s.Dir, core.ErrPlatformUnsupported, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("export: %s is not a directory: %w", s.Dir, core.ErrPlatformUnsupported)
	}
	return nil
}

func (s *DirSink) WriteFrame(name string, data []byte) error {
	return os.WriteFile(filepath.Join(s.Dir, name), data, 0o644)
}

// MultiSink fans frames out to several sinks. A write error from any of them
// is returned after all have been tried.
type MultiSink []Sink

func (m MultiSink) Open() error {
	for _, s := range m {
		if err := s.Open(); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) WriteFrame(name string, data []byte) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteFrame(name, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
