package router

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeNodeManager answers POST /execute with a fixed RESP reply,
// simulating the Node Manager's single reply per command line.
func fakeNodeManager(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/execute" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.Copy(io.Discard, r.Body)
		w.Write([]byte("+OK\r\n"))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestForwardPoolHandleRoundTrip(t *testing.T) {
	nodeManagerURL := fakeNodeManager(t)
	fp := NewForwardPool(2, 8, http.DefaultClient, nodeManagerURL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fp.Run(ctx)

	clientR, clientW := net.Pipe()
	defer clientR.Close()
	defer clientW.Close()

	var writeMu sync.Mutex
	done := make(chan struct{})
	ok := fp.Submit(forwardJob{
		tenantID:    "t1",
		commandLine: "PING",
		client:      clientW,
		writeMu:     &writeMu,
		done:        done,
	})
	if !ok {
		t.Fatal("expected submit to succeed")
	}

	buf := make([]byte, 64)
	n, err := clientR.Read(buf)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if string(buf[:n]) != "+OK\r\n" {
		t.Errorf("reply = %q, want +OK\\r\\n", buf[:n])
	}
	<-done
}

func TestForwardPoolSubmitBackpressure(t *testing.T) {
	fp := NewForwardPool(1, 1, http.DefaultClient, "http://unused", nil)
	// No Run() started: the single queue slot fills and the next
	// submit must report backpressure rather than block.
	fp.jobs <- forwardJob{}

	ok := fp.Submit(forwardJob{})
	if ok {
		t.Fatal("expected submit to fail once queue is saturated")
	}
}
