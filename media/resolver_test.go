package media

import (
	"context"
	"errors"
	"testing"
)

type stubResolver struct {
	urls  []string
	err   error
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, u string) ([]string, error) {
	s.calls++
	return s.urls, s.err
}

func TestRegistryFirstAnswerWins(t *testing.T) {
	t.Parallel()

	skip := &stubResolver{}
	hit := &stubResolver{urls: []string{"https://cdn.example.com/a.jpg"}}
	never := &stubResolver{urls: []string{"https://cdn.example.com/b.jpg"}}

	urls, err := NewRegistry(skip, hit, never).Resolve(context.Background(), "https://example.com/post")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://cdn.example.com/a.jpg" {
		t.Errorf("urls = %v", urls)
	}
	if skip.calls != 1 || hit.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", skip.calls, hit.calls)
	}
	if never.calls != 0 {
		t.Errorf("resolver after the match was consulted %d times", never.calls)
	}
}

func TestRegistryNoMatch(t *testing.T) {
	t.Parallel()

	a := &stubResolver{}
	b := &stubResolver{}

	urls, err := NewRegistry(a, b).Resolve(context.Background(), "https://nowhere.example.com/x")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if urls != nil {
		t.Errorf("urls = %v, want nil", urls)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.calls, b.calls)
	}
}

func TestRegistryPropagatesError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("album lookup failed")
	failing := &stubResolver{err: wantErr}
	after := &stubResolver{urls: []string{"https://cdn.example.com/x.jpg"}}

	_, err := NewRegistry(failing, after).Resolve(context.Background(), "https://example.com/post")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if after.calls != 0 {
		t.Error("registry kept trying resolvers after a failure")
	}
}

func TestRegistryEmpty(t *testing.T) {
	t.Parallel()

	urls, err := NewRegistry().Resolve(context.Background(), "https://example.com/x")
	if err != nil || urls != nil {
		t.Errorf("Resolve = (%v, %v), want (nil, nil)", urls, err)
	}
}
