package redgifs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
)

// newTestServer fakes the two API endpoints the resolver touches. The
// returned func reports how often the auth endpoint was hit.
func newTestServer(t *testing.T) (*httptest.Server, func() int) {
	t.Helper()

	var (
		mtx       sync.Mutex
		authCalls int
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/temporary", func(w http.ResponseWriter, r *http.Request) {
		mtx.Lock()
		authCalls++
		mtx.Unlock()
		w.Write([]byte(`{"token": "anon-token-xyz"}`))
	})
	mux.HandleFunc("/gifs/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer anon-token-xyz" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/gifs/happyotter":
			w.Write([]byte(`{"gif": {"urls": {"hd": "https://media.redgifs.com/happyotter.mp4", "sd": "https://media.redgifs.com/happyotter-mobile.mp4"}}}`))
		case "/gifs/sdonly":
			w.Write([]byte(`{"gif": {"urls": {"sd": "https://media.redgifs.com/sdonly-mobile.mp4"}}}`))
		default:
			http.NotFound(w, r)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, func() int {
		mtx.Lock()
		defer mtx.Unlock()
		return authCalls
	}
}

func newTestResolver(srv *httptest.Server) *Resolver {
	r := NewResolver(srv.Client())
	r.apiBase = srv.URL
	return r
}

func TestResolveWatchURL(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	r := newTestResolver(srv)

	urls, err := r.Resolve(context.Background(), "https://www.redgifs.com/watch/happyotter")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"https://media.redgifs.com/happyotter.mp4"}) {
		t.Errorf("urls = %v", urls)
	}
}

func TestResolveFallsBackToSD(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	r := newTestResolver(srv)

	urls, err := r.Resolve(context.Background(), "https://redgifs.com/watch/sdonly")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"https://media.redgifs.com/sdonly-mobile.mp4"}) {
		t.Errorf("urls = %v", urls)
	}
}

func TestResolveCachesToken(t *testing.T) {
	t.Parallel()

	srv, authCalls := newTestServer(t)
	r := newTestResolver(srv)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "https://www.redgifs.com/watch/happyotter"); err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
	}

	if got := authCalls(); got != 1 {
		t.Errorf("auth endpoint hit %d times, want 1", got)
	}
}

func TestResolveIgnoresForeignHosts(t *testing.T) {
	t.Parallel()

	r := NewResolver(&http.Client{})

	for _, u := range []string{
		"https://gfycat.com/watch/happyotter",
		"https://example.com/redgifs.com",
		"https://i.imgur.com/a1b2c3d.jpg",
	} {
		urls, err := r.Resolve(context.Background(), u)
		if err != nil {
			t.Errorf("Resolve(%q): %v", u, err)
		}
		if urls != nil {
			t.Errorf("Resolve(%q) = %v, want nil", u, urls)
		}
	}
}

func TestContentID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want string
	}{
		{"/watch/happyotter", "happyotter"},
		{"/i/happyotter.mp4", "happyotter"},
		{"/ifr/happyotter", "happyotter"},
		{"/happyotter", "happyotter"},
		{"/", ""},
		{"/browse/things/deep", ""},
	}

	for _, c := range cases {
		if got := contentID(c.path); got != c.want {
			t.Errorf("contentID(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}
