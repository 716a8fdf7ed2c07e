package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"buildlog/internal/preflight"
	"buildlog/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritableParent_MissingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "build.clef")
	result := preflight.CheckWritableParent("CLEF file", path)
	if !result.Passed {
		t.Fatalf("expected pass when an ancestor is writable, got: %s", result.Detail)
	}
}

func TestCheckWritableParent_ParentIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckWritableParent("CLEF file", filepath.Join(f, "build.clef"))
	if result.Passed {
		t.Fatal("expected failure when the parent is a regular file")
	}
}

func TestCheckSeq_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("X-Seq-ApiKey") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := preflight.CheckSeq(context.Background(), srv.URL+"/", "good-key", time.Second)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckSeq_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	result := preflight.CheckSeq(context.Background(), srv.URL, "bad-key", time.Second)
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckSeq_MissingEndpoint(t *testing.T) {
	result := preflight.CheckSeq(context.Background(), "", "key", time.Second)
	if result.Passed {
		t.Fatal("expected failure for missing endpoint")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := preflight.RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := preflight.RunAll(context.Background(), cfg)
	// listener socket + lock
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !preflight.AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
}

func TestRunAll_IncludesSinksWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithSeq(srv.URL, "test"),
		testsupport.WithClefFile("out/build.clef"),
	)

	results := preflight.RunAll(context.Background(), cfg)
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	for _, want := range []string{"Seq", "CLEF file", "Listener socket", "Listener lock"} {
		if !names[want] {
			t.Errorf("expected %s check in results", want)
		}
	}
}
