// Package snapshot archives raw fetched responses on disk, zstd-compressed
// and addressed by the hash of their resource key, so content can be
// restored when every live candidate source fails.
package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Store is a directory of compressed snapshots. Each record is the response
// media type on the first line followed by the raw body.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".zst")
}

// Write archives a response body for key, replacing any previous snapshot.
func (s *Store) Write(key, mediaType string, body []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	f, err := os.Create(s.path(key))
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := io.WriteString(w, mediaType+"\n"); err != nil {
		w.Close()
		return fmt.Errorf("writing snapshot header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		w.Close()
		return fmt.Errorf("writing snapshot body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// Read restores the archived response for key.
func (s *Store) Read(key string) (mediaType string, body []byte, err error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return "", nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return "", nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return "", nil, fmt.Errorf("reading snapshot header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, br); err != nil {
		return "", nil, fmt.Errorf("reading snapshot body: %w", err)
	}
	return strings.TrimSuffix(header, "\n"), buf.Bytes(), nil
}

// Has reports whether a snapshot exists for key.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}
