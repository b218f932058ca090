package codec_test

import (
	"testing"

	"github.com/discochess/partsplit/internal/codec"
	"github.com/discochess/partsplit/internal/codec/gzipcodec"
	"github.com/discochess/partsplit/internal/codec/noopcodec"
	"github.com/discochess/partsplit/internal/codec/zstdcodec"
)

func TestMatch(t *testing.T) {
	noop := noopcodec.New()
	gz := gzipcodec.New()
	zst := zstdcodec.New()

	tests := []struct {
		name string
		want codec.Codec
	}{
		{"app.log", noop},
		{"app.log.gz", gz},
		{"dump.jsonl.zst", zst},
		{"README", noop},
		{"archive.tar.bz2", noop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codec.Match(tt.name, noop, gz, zst)
			if got != tt.want {
				t.Errorf("Match(%q) = %T, want %T", tt.name, got, tt.want)
			}
		})
	}
}

func TestTrimExtension(t *testing.T) {
	tests := []struct {
		name  string
		codec codec.Codec
		want  string
	}{
		{"app.log.gz", gzipcodec.New(), "app.log"},
		{"dump.jsonl.zst", zstdcodec.New(), "dump.jsonl"},
		{"app.log", noopcodec.New(), "app.log"},
	}

	for _, tt := range tests {
		if got := codec.TrimExtension(tt.name, tt.codec); got != tt.want {
			t.Errorf("TrimExtension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
