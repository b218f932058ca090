package filesource

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/partsplit/internal/codec/noopcodec"
	"github.com/discochess/partsplit/internal/source"
)

const content = "alpha\nbeta\ngamma\n"

func readAll(t *testing.T, s source.Source) string {
	t.Helper()
	rc, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}

func TestSource_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(path)
	if s.Name() != path {
		t.Errorf("Name() = %q, want %q", s.Name(), path)
	}

	// Each Open starts from the beginning.
	for i := 0; i < 2; i++ {
		if got := readAll(t, s); got != content {
			t.Errorf("pass %d read %q, want %q", i, got, content)
		}
	}
}

func TestSource_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log.gz")

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write([]byte(content))
	w.Close()
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(path)
	if want := filepath.Join(filepath.Dir(path), "app.log"); s.Name() != want {
		t.Errorf("Name() = %q, want %q", s.Name(), want)
	}
	if got := readAll(t, s); got != content {
		t.Errorf("read %q, want %q", got, content)
	}
}

func TestSource_Zstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.jsonl.zst")

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	data := enc.EncodeAll([]byte(content), nil)
	enc.Close()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if got := readAll(t, New(path)); got != content {
		t.Errorf("read %q, want %q", got, content)
	}
}

func TestSource_WithCodecOverridesDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.gz")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(path, WithCodec(noopcodec.New()))
	if s.Name() != path {
		t.Errorf("Name() = %q, want %q", s.Name(), path)
	}
	if got := readAll(t, s); got != content {
		t.Errorf("read %q, want %q", got, content)
	}
}

func TestSource_NotFound(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.txt"))
	_, err := s.Open(context.Background())
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestSource_Directory(t *testing.T) {
	_, err := New(t.TempDir()).Open(context.Background())
	if err == nil {
		t.Error("Open() on a directory should fail")
	}
}

func TestSource_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("whatever").Open(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
}
