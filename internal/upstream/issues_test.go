package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetEventAttachment_ParsesFilenameAndContentType(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="screenshot.png"`)
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	c := NewWithClient("tok", hostOf(srv.URL), srv.Client())
	got, err := c.GetEventAttachment(context.Background(), "acme", "backend", "event-1", "att-1")
	if err != nil {
		t.Fatalf("GetEventAttachment: %v", err)
	}
	if got.Filename != "screenshot.png" {
		t.Errorf("Filename = %q, want screenshot.png", got.Filename)
	}
	if got.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", got.ContentType)
	}
	if string(got.Bytes) != "\x89PNG" {
		t.Errorf("Bytes = %q, want PNG magic bytes", got.Bytes)
	}
}

func TestGetEventAttachment_MissingContentDispositionLeavesFilenameEmpty(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	c := NewWithClient("tok", hostOf(srv.URL), srv.Client())
	got, err := c.GetEventAttachment(context.Background(), "acme", "backend", "event-1", "att-1")
	if err != nil {
		t.Fatalf("GetEventAttachment: %v", err)
	}
	if got.Filename != "" {
		t.Errorf("Filename = %q, want empty", got.Filename)
	}
}
