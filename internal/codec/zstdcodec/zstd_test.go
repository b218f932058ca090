package zstdcodec

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestCodec_Reader(t *testing.T) {
	original := bytes.Repeat([]byte("line of text\n"), 1000)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	compressed := enc.EncodeAll(original, nil)
	enc.Close()

	reader, err := New().Reader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("Reader() decoded %d bytes, want %d", len(got), len(original))
	}
}

func TestCodec_Extension(t *testing.T) {
	if got := New().Extension(); got != "zst" {
		t.Errorf("Extension() = %q, want %q", got, "zst")
	}
}
