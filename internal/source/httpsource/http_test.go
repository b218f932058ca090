package httpsource

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/discochess/partsplit/internal/source"
)

const body = "one\ntwo\nthree\n"

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	w.Write([]byte(body))
	w.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/data/app.log", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, body)
	})
	mux.HandleFunc("/data/app.log.gz", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(gz.Bytes())
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func read(t *testing.T, s *Source) string {
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

func TestSource_Open(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)

	s, err := New(srv.URL+"/data/app.log", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Name() != "app.log" {
		t.Errorf("Name() = %q, want %q", s.Name(), "app.log")
	}

	for i := 0; i < 2; i++ {
		if got := read(t, s); got != body {
			t.Errorf("pass %d read %q, want %q", i, got, body)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}
}

func TestSource_Gzip(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)

	s, err := New(srv.URL+"/data/app.log.gz", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Name() != "app.log" {
		t.Errorf("Name() = %q, want %q", s.Name(), "app.log")
	}
	if got := read(t, s); got != body {
		t.Errorf("read %q, want %q", got, body)
	}
}

func TestSource_Errors(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)

	missing, _ := New(srv.URL+"/missing", WithHTTPClient(srv.Client()))
	if _, err := missing.Open(context.Background()); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("Open() missing error = %v, want ErrNotFound", err)
	}

	broken, _ := New(srv.URL+"/broken", WithHTTPClient(srv.Client()))
	if _, err := broken.Open(context.Background()); err == nil {
		t.Error("Open() on 500 should fail")
	}
}

func TestNew_RejectsScheme(t *testing.T) {
	if _, err := New("ftp://example.com/file"); err == nil {
		t.Error("New() should reject ftp URLs")
	}
}

func TestSource_URL(t *testing.T) {
	raw := "https://example.com/logs/app.log.gz?sig=abc"
	s, err := New(raw)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.URL() != raw {
		t.Errorf("URL() = %q, want %q", s.URL(), raw)
	}
	if s.Name() != "app.log" {
		t.Errorf("Name() = %q, want %q", s.Name(), "app.log")
	}
}
