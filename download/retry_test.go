package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestPolicyExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	wantErr := &TransportError{URL: "https://example.com/x", Err: errors.New("reset")}

	err := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), func() error {
		calls++
		return wantErr
	})

	if calls != 3 {
		t.Errorf("fn ran %d times, want 3", calls)
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Errorf("err = %v, want the transport error back", err)
	}
}

func TestPolicyStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func() error {
		calls++
		return &UnsupportedContentTypeError{URL: "https://example.com/x", ContentType: "text/html"}
	})

	if calls != 1 {
		t.Errorf("fn ran %d times, want 1", calls)
	}
	var ue *UnsupportedContentTypeError
	if !errors.As(err, &ue) {
		t.Errorf("err = %v, want UnsupportedContentTypeError", err)
	}
}

func TestPolicyReturnsFirstSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return &StatusError{URL: "https://example.com/x", Code: 503, Status: "503 Service Unavailable"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Errorf("fn ran %d times, want 2", calls)
	}
}

func TestPolicyHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Policy{MaxAttempts: 3, BaseDelay: time.Minute}.Do(ctx, func() error {
		calls++
		cancel()
		return &TransportError{URL: "https://example.com/x", Err: errors.New("reset")}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("fn ran %d times, want 1", calls)
	}
}

func TestStatusErrorClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code      int
		temporary bool
		notFound  bool
	}{
		{http.StatusTooManyRequests, true, false},
		{http.StatusInternalServerError, true, false},
		{http.StatusServiceUnavailable, true, false},
		{http.StatusNotFound, false, true},
		{http.StatusGone, false, false},
		{http.StatusForbidden, false, false},
	}

	for _, c := range cases {
		se := &StatusError{URL: "https://example.com/x", Code: c.code, Status: http.StatusText(c.code)}
		if got := se.Temporary(); got != c.temporary {
			t.Errorf("Temporary() for %d = %v, want %v", c.code, got, c.temporary)
		}
		if got := se.NotFound(); got != c.notFound {
			t.Errorf("NotFound() for %d = %v, want %v", c.code, got, c.notFound)
		}
	}
}

func TestContextReaderStopsOnCancel(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	buf := make([]byte, 8)
	_, err := NewContextReader(ctx, pr).Read(buf)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Read returned %v, want context.DeadlineExceeded", err)
	}
}
