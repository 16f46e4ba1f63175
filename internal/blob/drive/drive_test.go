package drive

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Simultaneous screenshot uploads share one store; only the first may
// create the folder, the rest must reuse its ID.
func TestEnsureFolderCreatesOnce(t *testing.T) {
	var mu sync.Mutex
	lists, creates := 0, 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
			mu.Lock()
			lists++
			mu.Unlock()
			fmt.Fprint(w, `{"files":[]}`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files"):
			mu.Lock()
			creates++
			mu.Unlock()
			fmt.Fprint(w, `{"id":"folder-1"}`)
		default:
			http.Error(w, "unexpected call: "+r.Method+" "+r.URL.Path, http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	svc, err := drivev3.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("drive service: %v", err)
	}
	s := &Store{srv: svc, folderName: "Screenshots"}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.ensureFolder(context.Background())
			if err != nil {
				t.Errorf("ensure folder: %v", err)
				return
			}
			if id != "folder-1" {
				t.Errorf("folder id = %q", id)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if creates != 1 {
		t.Fatalf("folder created %d times, want 1", creates)
	}
	if lists != 1 {
		t.Fatalf("folder listed %d times, want 1", lists)
	}
}

func TestEnsureFolderReusesExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files") {
			fmt.Fprint(w, `{"files":[{"id":"existing-1"}]}`)
			return
		}
		http.Error(w, "unexpected call: "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	svc, err := drivev3.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("drive service: %v", err)
	}
	s := &Store{srv: svc, folderName: "Screenshots"}

	id, err := s.ensureFolder(context.Background())
	if err != nil {
		t.Fatalf("ensure folder: %v", err)
	}
	if id != "existing-1" {
		t.Fatalf("folder id = %q, want existing-1", id)
	}
}
