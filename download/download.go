package download

import (
	"context"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// GetBody performs an http GET with url=u using the supplied client and
// header. The caller owns the returned body.
func GetBody(ctx context.Context, hc *http.Client, u string, header http.Header) (io.ReadCloser, error) {
	log.Debugf("get: %s", u)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rsp, err := hc.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		rsp.Body.Close()
		return nil, &StatusError{URL: u, Code: rsp.StatusCode, Status: rsp.Status}
	}

	return rsp.Body, nil
}

// Get calls GetBody(), then reads the full response and returns the result.
// It bounds the whole exchange at 30 seconds.
func Get(ctx context.Context, hc *http.Client, u string, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	body, err := GetBody(ctx, hc, u, header)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	b, err := io.ReadAll(NewContextReader(ctx, body))
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}

	return b, nil
}
