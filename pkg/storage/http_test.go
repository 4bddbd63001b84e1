package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func newTestHTTP(t *testing.T) (*HTTP, *int) {
	t.Helper()
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/voices.json", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"v":[1]}`))
	})
	mux.HandleFunc("/assets/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s, err := NewHTTP(srv.URL+"/assets", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	return s, &hits
}

func TestHTTPRead(t *testing.T) {
	s, hits := newTestHTTP(t)
	got, err := ReadAll(context.Background(), s, "voices.json", 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"v":[1]}` || *hits != 1 {
		t.Fatalf("got %q, hits %d", got, *hits)
	}
}

func TestHTTPErrors(t *testing.T) {
	s, _ := newTestHTTP(t)
	ctx := context.Background()

	if _, err := s.Read(ctx, "missing.onnx"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("404 = %v, want os.ErrNotExist", err)
	}
	if _, err := s.Read(ctx, "broken"); err == nil || errors.Is(err, os.ErrNotExist) {
		t.Errorf("500 = %v", err)
	}
	if _, err := s.Write(ctx, "x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Write = %v", err)
	}
	if err := s.Delete(ctx, "x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Delete = %v", err)
	}
}

func TestHTTPExists(t *testing.T) {
	s, _ := newTestHTTP(t)
	ctx := context.Background()
	if ok, err := s.Exists(ctx, "voices.json"); err != nil || !ok {
		t.Errorf("Exists present = %v, %v", ok, err)
	}
	if ok, err := s.Exists(ctx, "nope"); err != nil || ok {
		t.Errorf("Exists missing = %v, %v", ok, err)
	}
}

func TestNewHTTPRejectsOtherSchemes(t *testing.T) {
	if _, err := NewHTTP("ftp://example.com", nil); err == nil {
		t.Fatal("expected error")
	}
}
