package cli

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tspstudio/pkg/neos"
	"github.com/matzehuels/tspstudio/pkg/store"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// killServer answers ping and killJob like NEOS and records killed jobs.
type killServer struct {
	mu     sync.Mutex
	killed []int
}

func (k *killServer) handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		var call struct {
			Name   string   `xml:"methodName"`
			Params []string `xml:"params>param>value>int"`
		}
		if err := xml.Unmarshal(body, &call); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		reply := "NeosServer is alive\n"
		if call.Name == "killJob" {
			job, _ := strconv.Atoi(strings.TrimSpace(call.Params[0]))
			k.mu.Lock()
			k.killed = append(k.killed, job)
			k.mu.Unlock()
			reply = "Job killed"
		}
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><params><param><value><string>%s</string></value></param></params></methodResponse>`, reply)
	})
	return r
}

func TestStippleCancelsRemoteJob(t *testing.T) {
	dir, img := workspace(t)
	ref := filepath.Join(dir, "gradient.study.json")
	ks := &killServer{}
	srv := httptest.NewServer(ks.handler())
	defer srv.Close()
	t.Setenv("TSPSTUDIO_NEOS_URL", srv.URL)

	if err := execute(t, "new", img, "-n", "150"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := execute(t, "stipple", ref, "--iterations", "3"); err != nil {
		t.Fatalf("stipple: %v", err)
	}

	s := loadTestStudy(t, ref)
	s.Channels[0].State = studio.SubmittedState(neos.Handle{Job: 42, Password: "pw"})
	st, err := store.NewFileStore("")
	if err != nil {
		t.Fatal(err)
	}
	if err := studio.Save(context.Background(), st, ref, s); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "stipple", ref, "--iterations", "3"); err != nil {
		t.Fatalf("restipple: %v", err)
	}
	if len(ks.killed) != 1 || ks.killed[0] != 42 {
		t.Errorf("killed = %v, want [42]", ks.killed)
	}
	if got := loadTestStudy(t, ref).Channels[0].State.Status; got != studio.Unscheduled {
		t.Errorf("status = %v, want Unscheduled", got)
	}
}

func TestStippleWithoutJobsSkipsRemote(t *testing.T) {
	dir, img := workspace(t)
	ref := filepath.Join(dir, "gradient.study.json")
	// Unroutable; stippling must not dial it.
	t.Setenv("TSPSTUDIO_NEOS_URL", "http://127.0.0.1:1")

	if err := execute(t, "new", img, "-n", "150"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := execute(t, "stipple", ref, "--iterations", "3"); err != nil {
		t.Fatalf("stipple: %v", err)
	}
}
