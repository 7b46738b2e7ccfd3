// Package httputil provides the HTTP plumbing shared by remote service
// clients.
//
//   - [Retry] and [RetryNotify]: retry with exponential backoff for
//     failures marked [RetryableError]
//   - [NewTransport]: an http.RoundTripper with dial and response timeouts
//     suitable for long-lived XML-RPC sessions
//
// Only errors explicitly wrapped in [RetryableError] are retried, so a
// caller decides per failure whether another attempt makes sense:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    if err := ping(); err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    return nil
//	})
package httputil
