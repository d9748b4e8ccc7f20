package goaccess

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pierrec/lz4/v4"
)

const backupSuffix = ".bak.lz4"

// Store writes managed configuration files idempotently. Replaced content
// is kept as an lz4-compressed backup next to the file.
type Store struct {
	// Now defaults to time.Now; backups are named after it.
	Now func() time.Time
	// Mode for newly written files, default 0644.
	Mode os.FileMode
}

// WriteResult describes what Write did.
type WriteResult struct {
	Changed bool   `json:"changed" yaml:"changed"`
	Backup  string `json:"backup,omitempty" yaml:"backup,omitempty"`
}

// Write puts content at path unless the file already holds the same bytes.
func (s Store) Write(path, content string) (WriteResult, error) {
	old, err := os.ReadFile(path)
	switch {
	case err == nil:
		if xxhash.Sum64(old) == xxhash.Sum64String(content) {
			return WriteResult{}, nil
		}
	case errors.Is(err, os.ErrNotExist):
		old = nil
	default:
		return WriteResult{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WriteResult{}, err
	}
	var res WriteResult
	if old != nil {
		res.Backup, err = s.backup(path, old)
		if err != nil {
			return WriteResult{}, err
		}
	}
	if err := writeAtomic(path, []byte(content), s.mode()); err != nil {
		return WriteResult{}, err
	}
	res.Changed = true
	return res, nil
}

func (s Store) backup(path string, data []byte) (string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	dst := path + "." + now().Format("20060102-150405") + backupSuffix

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return dst, os.WriteFile(dst, buf.Bytes(), 0o600)
}

// Restore decompresses backup over the file it was taken from.
func (s Store) Restore(backup string) (string, error) {
	base := filepath.Base(backup)
	if !strings.HasSuffix(base, backupSuffix) {
		return "", errors.New("not a goaccess-hub backup: " + backup)
	}
	// strip ".<timestamp>.bak.lz4"
	trimmed := strings.TrimSuffix(backup, backupSuffix)
	dot := strings.LastIndexByte(trimmed, '.')
	if dot <= len(filepath.Dir(backup)) {
		return "", errors.New("backup name has no timestamp: " + backup)
	}
	target := trimmed[:dot]

	f, err := os.Open(backup)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(lz4.NewReader(f))
	if err != nil {
		return "", err
	}
	return target, writeAtomic(target, data, s.mode())
}

// Backups returns the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".*" + backupSuffix)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (s Store) mode() os.FileMode {
	if s.Mode == 0 {
		return 0o644
	}
	return s.Mode
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
