package statusapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tspstudio/pkg/studio"
)

func testServer() *Server {
	s := New(log.New(io.Discard))
	s.Update(studio.Snapshot{
		StudyID: "abc",
		Mode:    "rgb",
		Phase:   studio.PhasePolling,
		Channels: []studio.ChannelSnapshot{
			{Index: 0, Name: "red", Status: "resolved", Points: 100},
			{Index: 1, Name: "green", Status: "submitted", Job: 7, Points: 101},
			{Index: 2, Name: "blue", Status: "failed", Points: 102, LastError: "rejected"},
		},
	})
	return s
}

func TestStatus(t *testing.T) {
	ts := httptest.NewServer(testServer().Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var snap studio.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.StudyID != "abc" || len(snap.Channels) != 3 || snap.Resolved() != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestChannel(t *testing.T) {
	ts := httptest.NewServer(testServer().Handler())
	defer ts.Close()

	tests := []struct {
		path   string
		status int
		job    int
	}{
		{"/channels/1", http.StatusOK, 7},
		{"/channels/3", http.StatusNotFound, 0},
		{"/channels/x", http.StatusNotFound, 0},
		{"/channels/-1", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		var ch studio.ChannelSnapshot
		_ = json.NewDecoder(resp.Body).Decode(&ch)
		resp.Body.Close()
		if resp.StatusCode != tt.status {
			t.Errorf("%s: status %d, want %d", tt.path, resp.StatusCode, tt.status)
		}
		if ch.Job != tt.job {
			t.Errorf("%s: job %d, want %d", tt.path, ch.Job, tt.job)
		}
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	New(log.New(io.Discard)).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestServeShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	s := testServer()
	go func() { errc <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
