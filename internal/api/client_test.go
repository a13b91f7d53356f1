package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok-123", 5*time.Second)
}

func TestGetSendsBearerToken(t *testing.T) {
	var gotAuth, gotAccept string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	})

	var out struct{}
	if err := c.Get(context.Background(), "/projects/p1/notes", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestFetchStageViewPath(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"stage":{"id":"s1","title":"Framing"},"check_items":[],"media":[]}`))
	})

	view, err := c.FetchStageView(context.Background(), "p1", "s1")
	if err != nil {
		t.Fatalf("FetchStageView: %v", err)
	}
	if gotPath != "/stages/projects/p1/s1" {
		t.Errorf("path = %q", gotPath)
	}
	if view.Stage.Title != "Framing" {
		t.Errorf("stage title = %q", view.Stage.Title)
	}
}

func TestListNotesFiltersByStage(t *testing.T) {
	var gotPath, gotStage string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStage = r.URL.Query().Get("stage_id")
		w.Write([]byte(`[{"id":"n1","body":"check slab"}]`))
	})

	notes, err := c.ListNotes(context.Background(), "p1", "s1")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if gotPath != "/projects/p1/notes" || gotStage != "s1" {
		t.Errorf("request = %s?stage_id=%s", gotPath, gotStage)
	}
	if len(notes) != 1 || notes[0].Body != "check slab" {
		t.Errorf("notes = %v", notes)
	}
}

func TestUpsertCheckBody(t *testing.T) {
	var gotPath string
	var gotBody map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.UpsertCheck(context.Background(), "p1", "c1", UpsertCheckRequest{
		IsDone: true,
		Note:   nil,
	})
	if err != nil {
		t.Fatalf("UpsertCheck: %v", err)
	}
	if gotPath != "/projects/p1/checks/c1" {
		t.Errorf("path = %q", gotPath)
	}
	if string(gotBody["is_done"]) != "true" {
		t.Errorf("is_done = %s", gotBody["is_done"])
	}
	// An absent draft note must serialize as JSON null, not "".
	if string(gotBody["note"]) != "null" {
		t.Errorf("note = %s, want null", gotBody["note"])
	}
}

func TestNegotiateUploadDecodesTarget(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/p1/media/upload" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"upload_url":"DEV_LOCAL:///tmp/a.jpg","storage_path":"/tmp/a.jpg"}`))
	})

	stage := "s1"
	target, err := c.NegotiateUpload(context.Background(), "p1", NegotiateUploadRequest{
		StageID:     &stage,
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		LocalURI:    "/tmp/a.jpg",
	})
	if err != nil {
		t.Fatalf("NegotiateUpload: %v", err)
	}
	if !target.IsDevLocal() {
		t.Error("DEV_LOCAL target not recognized")
	}
	if target.StoragePath != "/tmp/a.jpg" {
		t.Errorf("storage path = %q", target.StoragePath)
	}
}

func TestErrorEnvelopeDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"stage not found"}`))
	})

	_, err := c.FetchStageView(context.Background(), "p1", "missing")
	if err == nil {
		t.Fatal("expected an error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != 404 || statusErr.Message != "stage not found" {
		t.Errorf("status error = %+v", statusErr)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should report true for a 404")
	}
}

func TestNetworkFailureIsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	c := NewClient(srv.URL, "tok", time.Second)

	_, err := c.FetchStageView(context.Background(), "p1", "s1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsNetwork(err) {
		t.Errorf("IsNetwork(%v) = false", err)
	}
	if IsNotFound(err) {
		t.Error("a transport failure is not a 404")
	}
}

func TestRateLimitRetries(t *testing.T) {
	var hits int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	})

	if _, err := c.ListNotes(context.Background(), "p1", "s1"); err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
}

func TestRateLimitExhaustionSkipsFinalWait(t *testing.T) {
	var hits int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		// The last response advertises a long wait; with no retry
		// budget left the client must not honor it.
		if hits < 4 {
			w.Header().Set("Retry-After", "0")
		} else {
			w.Header().Set("Retry-After", "30")
		}
		w.WriteHeader(http.StatusTooManyRequests)
	})

	start := time.Now()
	_, err := c.ListNotes(context.Background(), "p1", "s1")
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if hits != 4 {
		t.Errorf("hits = %d, want 4", hits)
	}
	if !strings.Contains(err.Error(), "max retries") {
		t.Errorf("err = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("final rate-limit wait was not skipped (took %s)", elapsed)
	}
}

func TestTransferBytesSkipsBearerAuth(t *testing.T) {
	var gotAuth, gotType string
	var gotLen int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotLen = r.ContentLength
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("https://unused.example.com", "tok", time.Second)
	status, err := c.TransferBytes(
		context.Background(), srv.URL+"/bucket/key", "image/jpeg", []byte("abc"),
	)
	if err != nil {
		t.Fatalf("TransferBytes: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	// The presigned URL carries its own authorization.
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
	if gotType != "image/jpeg" || gotLen != 3 {
		t.Errorf("content type = %q len = %d", gotType, gotLen)
	}
}

func TestIsDevLocal(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"DEV_LOCAL:///var/media/a.jpg", true},
		{"DEV_LOCAL://", true},
		{"https://bucket.example.com/k?sig=abc", false},
		{"", false},
	}
	for _, tt := range tests {
		got := UploadTarget{UploadURL: tt.url}.IsDevLocal()
		if got != tt.want {
			t.Errorf("IsDevLocal(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
