package nodemanager

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *Manager) {
	t.Helper()
	m := New(2, 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	h := NewHandler(slog.New(slog.DiscardHandler), m)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, m
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHTTPStartExecuteStop(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/start", startRequest{TenantID: "t1", Port: 6400, MemoryLimitMB: 40})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/execute", executeRequest{TenantID: "t1", Command: "SET foo bar"})
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "+OK\r\n" {
		t.Fatalf("execute SET: got %q", body)
	}

	resp = postJSON(t, srv.URL+"/execute", executeRequest{TenantID: "t1", Command: "GET foo"})
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "$3\r\nbar\r\n" {
		t.Fatalf("execute GET: got %q", body)
	}

	resp = postJSON(t, srv.URL+"/stop", stopRequest{TenantID: "t1"})
	var stopResp map[string]any
	json.NewDecoder(resp.Body).Decode(&stopResp)
	resp.Body.Close()
	if stopResp["success"] != true {
		t.Fatalf("stop: got %v", stopResp)
	}
}

func TestHTTPListNodes(t *testing.T) {
	srv, _ := newTestServer(t)
	postJSON(t, srv.URL+"/start", startRequest{TenantID: "t1", Port: 6400, MemoryLimitMB: 40}).Body.Close()

	resp, err := http.Get(srv.URL + "/list")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var entries []listEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].TenantID != "t1" || entries[0].Status != "running" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
