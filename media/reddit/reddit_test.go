package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestResolvePassesThroughCDN(t *testing.T) {
	t.Parallel()

	r := NewResolver(&http.Client{}, "test-agent/1.0")

	for _, u := range []string{
		"https://i.redd.it/abc123.jpg",
		"https://preview.redd.it/abc123.png?width=640",
		"https://v.redd.it/abc123",
	} {
		urls, err := r.Resolve(context.Background(), u)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", u, err)
		}
		if !reflect.DeepEqual(urls, []string{u}) {
			t.Errorf("Resolve(%q) = %v", u, urls)
		}
	}
}

func TestResolveIgnoresForeignHosts(t *testing.T) {
	t.Parallel()

	r := NewResolver(&http.Client{}, "test-agent/1.0")

	for _, u := range []string{
		"https://i.imgur.com/abc123.jpg",
		"https://www.reddit.com/r/pics/comments/xyz/title/",
		"https://www.reddit.com/",
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

func TestResolveGallery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/comments/1abcde.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.RawQuery != "raw_json=1" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		if got := r.Header.Get("User-Agent"); got != "test-agent/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write([]byte(`[
			{"data": {"children": [{"data": {
				"media_metadata": {
					"still1": {"status": "valid", "s": {"u": "https://preview.redd.it/still1.jpg"}}
				}
			}}]}},
			{"data": {"children": [{"data": {}}]}}
		]`))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), "test-agent/1.0")
	r.jsonBase = srv.URL

	urls, err := r.Resolve(context.Background(), "https://www.reddit.com/gallery/1abcde")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"https://preview.redd.it/still1.jpg"}) {
		t.Errorf("urls = %v", urls)
	}
}

func TestResolveGalleryPrefersStillOverVideo(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"data": {"children": [{"data": {
			"media_metadata": {
				"anim1": {"status": "valid", "s": {"mp4": "https://preview.redd.it/anim1.mp4", "gif": "https://preview.redd.it/anim1.gif"}}
			}
		}}]}}]`))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), "test-agent/1.0")
	r.jsonBase = srv.URL

	urls, err := r.Resolve(context.Background(), "https://reddit.com/gallery/1fghij")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Without a still rendition the mp4 wins over the gif.
	if !reflect.DeepEqual(urls, []string{"https://preview.redd.it/anim1.mp4"}) {
		t.Errorf("urls = %v", urls)
	}
}

func TestResolveEmptyGallery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"data": {"children": [{"data": {}}]}}]`))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), "test-agent/1.0")
	r.jsonBase = srv.URL

	if _, err := r.Resolve(context.Background(), "https://www.reddit.com/gallery/1klmno"); err == nil {
		t.Fatal("Resolve succeeded on a gallery with no media")
	}
}

func TestGalleryID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path   string
		wantID string
		wantOK bool
	}{
		{"/gallery/1abcde", "1abcde", true},
		{"/gallery/1abcde/", "1abcde", true},
		{"/gallery/", "", false},
		{"/r/pics/comments/1abcde/title/", "", false},
		{"/", "", false},
	}

	for _, c := range cases {
		id, ok := galleryID(c.path)
		if id != c.wantID || ok != c.wantOK {
			t.Errorf("galleryID(%q) = (%q, %v), want (%q, %v)", c.path, id, ok, c.wantID, c.wantOK)
		}
	}
}
