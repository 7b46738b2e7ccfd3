package httputil

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single request/response exchange.
const DefaultTimeout = 2 * time.Minute

// NewTransport returns an HTTP transport whose dials and response headers
// time out after timeout. A zero timeout uses [DefaultTimeout].
func NewTransport(timeout time.Duration) *http.Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   2,
	}
}

// WithUserAgent returns a round tripper that sets the User-Agent header on
// every request before delegating to rt.
func WithUserAgent(rt http.RoundTripper, ua string) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return userAgent{rt: rt, ua: ua}
}

type userAgent struct {
	rt http.RoundTripper
	ua string
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", u.ua)
	return u.rt.RoundTrip(req)
}
