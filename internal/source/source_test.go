package source

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"go.uber.org/multierr"
)

func TestParseBucketURL(t *testing.T) {
	tests := []struct {
		raw        string
		scheme     string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"s3://logs/2024/app.log", "s3", "logs", "2024/app.log", false},
		{"gs://exports/dump.jsonl", "gs", "exports", "dump.jsonl", false},
		{"gs://exports", "gs", "exports", "", false},
		{"gs://exports/", "gs", "exports", "", false},
		{"s3:///key", "s3", "", "", true},
		{"gs://bucket/key", "s3", "", "", true},
		{"/tmp/app.log", "s3", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			bucket, key, err := ParseBucketURL(tt.raw, tt.scheme)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBucketURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || key != tt.wantKey {
				t.Errorf("ParseBucketURL() = (%q, %q), want (%q, %q)", bucket, key, tt.wantBucket, tt.wantKey)
			}
		})
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"bare cr", "a\rb\rc", []string{"a", "b", "c"}},
		{"mixed terminators", "a\r\nb\rc\nd", []string{"a", "b", "c", "d"}},
		{"cr then blank", "a\r\rb\r", []string{"a", "", "b"}},
		{"trailing cr", "a\r", []string{"a"}},
		{"blank lines kept", "a\n\nb\n", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := NewLines(io.NopCloser(strings.NewReader(tt.input)))
			defer lines.Close()

			var got []string
			for {
				line, ok, err := lines.Next()
				if err != nil {
					t.Fatalf("Next() error = %v", err)
				}
				if !ok {
					break
				}
				got = append(got, line)
			}

			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("lines = %q, want %q", got, tt.want)
			}

			// End of input is sticky.
			if _, ok, err := lines.Next(); ok || err != nil {
				t.Errorf("Next() after end = (%v, %v), want (false, nil)", ok, err)
			}
		})
	}
}

func TestLines_CRLFAcrossReads(t *testing.T) {
	// One byte per Read puts every "\r" at the end of the scanner's buffer.
	r := iotest.OneByteReader(strings.NewReader("a\r\nb\r\nc\rd"))
	lines := NewLines(io.NopCloser(r))
	defer lines.Close()

	var got []string
	for {
		line, ok, err := lines.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if !ok {
			break
		}
		got = append(got, line)
	}
	if strings.Join(got, "|") != "a|b|c|d" {
		t.Errorf("lines = %q, want [a b c d]", got)
	}
}

func TestLines_LineTooLong(t *testing.T) {
	long := strings.Repeat("x", maxLineLength+1)
	lines := NewLines(io.NopCloser(strings.NewReader(long)))
	defer lines.Close()

	_, ok, err := lines.Next()
	if ok || err == nil {
		t.Fatalf("Next() = (%v, %v), want scanner error", ok, err)
	}
}

type closeRecorder struct {
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

func TestChain_ClosesAll(t *testing.T) {
	boom := errors.New("boom")
	bang := errors.New("bang")
	first := &closeRecorder{err: boom}
	second := &closeRecorder{}
	third := &closeRecorder{err: bang}

	rc := Chain(strings.NewReader("x"), first, second, third)
	err := rc.Close()
	if !errors.Is(err, boom) || !errors.Is(err, bang) {
		t.Errorf("Close() error = %v, want both %v and %v", err, boom, bang)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("Close() combined %d errors, want 2", n)
	}
	if !first.closed || !second.closed || !third.closed {
		t.Error("Close() did not close every closer")
	}
}
