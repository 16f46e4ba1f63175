package submit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hackfinity-intake/internal/models"
)

func testRecord() models.RegistrationRecord {
	return models.RegistrationRecord{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		TeamName:  "Solo",
		TeamSize:  1,
	}
}

func TestSubmitPostsJSON(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"success":true,"message":"ok","timestamp":"2025-06-01T10:00:00Z"}`)
	}))
	defer srv.Close()

	a := New(srv.URL)
	if err := a.Submit(context.Background(), testRecord()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if string(gotBody) == "" || gotBody[0] != '{' {
		t.Fatalf("body = %q, want json object", gotBody)
	}
}

func TestSubmitPropagatesServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"message":"No data received","timestamp":"2025-06-01T10:00:00Z"}`)
	}))
	defer srv.Close()

	a := New(srv.URL)
	err := a.Submit(context.Background(), testRecord())
	if err == nil {
		t.Fatal("a success=false response must surface as an error")
	}
	if got := err.Error(); got != "intake rejected submission: No data received" {
		t.Fatalf("err = %q", got)
	}
}

func TestSubmitDemoModeWithoutEndpoint(t *testing.T) {
	a := New("")
	if err := a.Submit(context.Background(), testRecord()); err != nil {
		t.Fatalf("demo mode should succeed, got %v", err)
	}
}

// failFirstTransport fails the first request and passes the rest on.
type failFirstTransport struct {
	calls int
	next  http.RoundTripper
}

func (f *failFirstTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls == 1 || f.next == nil {
		return nil, fmt.Errorf("connection refused")
	}
	return f.next.RoundTrip(req)
}

func TestSubmitFallsBackToFormPost(t *testing.T) {
	var gotContentType, gotData string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotData = r.PostForm.Get("data")
		fmt.Fprint(w, `{"success":true,"message":"ok","timestamp":"2025-06-01T10:00:00Z"}`)
	}))
	defer srv.Close()

	a := New(srv.URL)
	a.Client = &http.Client{Transport: &failFirstTransport{next: http.DefaultTransport}}

	if err := a.Submit(context.Background(), testRecord()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("fallback content type = %q", gotContentType)
	}
	if gotData == "" || gotData[0] != '{' {
		t.Fatalf("fallback data field = %q, want json", gotData)
	}
}

func TestSubmitSurfacesTotalFailure(t *testing.T) {
	a := New("http://127.0.0.1:0/intake")
	a.Client = &http.Client{Transport: &failFirstTransport{}} // next == nil fails everything

	if err := a.Submit(context.Background(), testRecord()); err == nil {
		t.Fatal("expected error when both paths fail")
	}
}
