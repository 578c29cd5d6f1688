package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("missing accept header, got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl := w.(http.Flusher)
		for _, ln := range lines {
			_, _ = w.Write([]byte(ln + "\n"))
			fl.Flush()
		}
	}))
}

func collect(t *testing.T, frames <-chan Frame, n int) []Frame {
	t.Helper()
	out := make([]Frame, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case f, ok := <-frames:
			if !ok {
				return out
			}
			out = append(out, f)
		case <-timeout:
			t.Fatalf("timeout after %d frames", len(out))
		}
	}
	return out
}

func TestClientParsesFrames(t *testing.T) {
	srv := sseServer(t, []string{
		": keep-alive",
		"data: {\"agent\":\"fundamental\"}",
		"",
		"event: universe",
		"data: {\"base_count\":10}",
		"",
	})
	defer srv.Close()

	c := NewClient()
	frames, _, err := c.Connect(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	got := collect(t, frames, 2)
	if got[0].Event != "" || got[0].Data != `{"agent":"fundamental"}` {
		t.Fatalf("default-channel frame mangled: %+v", got[0])
	}
	if got[1].Event != "universe" || got[1].Data != `{"base_count":10}` {
		t.Fatalf("named frame mangled: %+v", got[1])
	}
}

func TestClientMultiLineData(t *testing.T) {
	srv := sseServer(t, []string{
		"data: line one",
		"data: line two",
		"",
	})
	defer srv.Close()

	c := NewClient()
	frames, _, err := c.Connect(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	got := collect(t, frames, 1)
	if got[0].Data != "line one\nline two" {
		t.Fatalf("data lines not joined: %q", got[0].Data)
	}
}

func TestClientHandlesCRLF(t *testing.T) {
	srv := sseServer(t, []string{
		"event: ranking\r",
		"data: {\"top_k\":[]}\r",
		"\r",
	})
	defer srv.Close()

	c := NewClient()
	frames, _, err := c.Connect(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	got := collect(t, frames, 1)
	if got[0].Event != "ranking" || got[0].Data != `{"top_k":[]}` {
		t.Fatalf("CRLF frame mangled: %+v", got[0])
	}
}

func TestClientIgnoresDanglingData(t *testing.T) {
	// a frame never terminated by a blank line is not dispatched
	srv := sseServer(t, []string{
		"data: complete",
		"",
		"data: dangling",
	})
	defer srv.Close()

	c := NewClient()
	frames, _, err := c.Connect(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	var got []Frame
	for f := range frames {
		got = append(got, f)
	}
	if len(got) != 1 || got[0].Data != "complete" {
		t.Fatalf("expected only the terminated frame, got %v", got)
	}
}

func TestClientRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient()
	if _, _, err := c.Connect(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error on 503")
	}
}

func TestClientRejectsWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient()
	if _, _, err := c.Connect(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error on wrong content type")
	}
}

func TestClientCloseStopsDelivery(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("data: first\n\n"))
		w.(http.Flusher).Flush()
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient()
	frames, errs, err := c.Connect(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	collect(t, frames, 1)

	if !c.IsConnected() {
		t.Fatalf("expected connected")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// a local close is a clean shutdown: channels drain without an error
	for range frames {
	}
	if err, ok := <-errs; ok && err != nil {
		t.Fatalf("unexpected error after close: %v", err)
	}
	if c.IsConnected() {
		t.Fatalf("still connected after close")
	}
}
