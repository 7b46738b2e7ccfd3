package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	client := &http.Client{Transport: WithUserAgent(NewTransport(0), "tspstudio/test")}
	resp, err := client.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got != "tspstudio/test" {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestNewTransportDefaults(t *testing.T) {
	tr := NewTransport(0)
	if tr.ResponseHeaderTimeout != DefaultTimeout {
		t.Errorf("ResponseHeaderTimeout = %v, want %v", tr.ResponseHeaderTimeout, DefaultTimeout)
	}
}
