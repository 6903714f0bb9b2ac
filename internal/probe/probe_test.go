package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"siteauditor/internal/fetch"
	"siteauditor/internal/log"
)

func TestMain(m *testing.M) {
	log.Logger, _ = zap.NewDevelopment()
	os.Exit(m.Run())
}

func newTestProber() *Prober {
	return New(fetch.New(5*time.Second, "siteauditor-test/1.0"))
}

func TestCoreFilesAllPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.Write([]byte("User-agent: *\nAllow: /\n"))
		case "/sitemap.xml":
			w.Header().Set("Last-Modified", "Tue, 03 Mar 2026 10:00:00 GMT")
			w.Write([]byte(`<?xml version="1.0"?><urlset></urlset>`))
		case "/llms.txt":
			w.Write([]byte("# llms.txt\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	files := newTestProber().CoreFiles(context.Background(), server.URL)

	if !files.Robots.Present {
		t.Error("Robots.Present = false, want true")
	}
	if !strings.HasSuffix(files.Robots.URL, "/robots.txt") {
		t.Errorf("Robots.URL = %q, want suffix /robots.txt", files.Robots.URL)
	}
	if !files.Sitemap.Present {
		t.Error("Sitemap.Present = false, want true")
	}
	if files.Sitemap.LastModified != "Tue, 03 Mar 2026 10:00:00 GMT" {
		t.Errorf("Sitemap.LastModified = %q, want the served header", files.Sitemap.LastModified)
	}
	if !files.LLMsTxt {
		t.Error("LLMsTxt = false, want true")
	}
}

func TestCoreFilesAllAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	files := newTestProber().CoreFiles(context.Background(), server.URL)

	if files.Robots.Present || files.Sitemap.Present || files.LLMsTxt {
		t.Errorf("CoreFiles() = %+v, want everything absent", files)
	}
	if files.Robots.URL != "" {
		t.Errorf("Robots.URL = %q, want empty for an absent file", files.Robots.URL)
	}
}

func TestCoreFilesManifestFallthrough(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/ai.txt" {
			w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	files := newTestProber().CoreFiles(context.Background(), server.URL)

	if !files.LLMsTxt {
		t.Error("LLMsTxt = false, want true when a later candidate answers")
	}
	var manifests []string
	for _, p := range paths {
		if p != "/robots.txt" && p != "/sitemap.xml" {
			manifests = append(manifests, p)
		}
	}
	want := []string{"/llms.txt", "/llms-full.txt", "/ai.txt"}
	if len(manifests) != len(want) {
		t.Fatalf("probed manifests %v, want %v", manifests, want)
	}
	for i := range want {
		if manifests[i] != want[i] {
			t.Errorf("manifest probe order[%d] = %q, want %q", i, manifests[i], want[i])
		}
	}
}

func TestCoreFilesManifestStopsAtFirstHit(t *testing.T) {
	var mu sync.Mutex
	var manifests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt", "/sitemap.xml":
			w.WriteHeader(http.StatusNotFound)
		default:
			mu.Lock()
			manifests++
			mu.Unlock()
			w.Write([]byte("ok"))
		}
	}))
	defer server.Close()

	files := newTestProber().CoreFiles(context.Background(), server.URL)

	if !files.LLMsTxt {
		t.Error("LLMsTxt = false, want true")
	}
	if manifests != 1 {
		t.Errorf("probed %d manifest candidates, want 1 after the first hit", manifests)
	}
}

func TestCoreFilesTransportErrorTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	files := newTestProber().CoreFiles(context.Background(), server.URL)

	if files.Robots.Present || files.Sitemap.Present || files.LLMsTxt {
		t.Errorf("CoreFiles() = %+v, want everything absent on transport failure", files)
	}
}

func TestCoreFilesTrailingSlashOrigin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	files := newTestProber().CoreFiles(context.Background(), server.URL+"/")

	if !files.Robots.Present {
		t.Error("Robots.Present = false for trailing-slash origin, want true")
	}
}
