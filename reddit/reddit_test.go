package reddit

import (
	"testing"
	"time"

	api "github.com/vartanbeno/go-reddit/v2/reddit"
)

func TestFromPost(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	p := &api.Post{
		ID:            "1abcde",
		Title:         "Sunset over the bay",
		URL:           "https://i.redd.it/xyz.jpg",
		Permalink:     "/r/pics/comments/1abcde/sunset_over_the_bay/",
		SubredditName: "pics",
		Author:        "someone",
		Score:         42,
		Created:       &api.Timestamp{Time: created},
		IsSelfPost:    false,
		Body:          "",
	}

	s := fromPost(p)

	if s.ID != "1abcde" {
		t.Errorf("ID = %q", s.ID)
	}
	if s.Title != "Sunset over the bay" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.URL != "https://i.redd.it/xyz.jpg" {
		t.Errorf("URL = %q", s.URL)
	}
	if s.Subreddit != "pics" {
		t.Errorf("Subreddit = %q", s.Subreddit)
	}
	if s.Author != "someone" {
		t.Errorf("Author = %q", s.Author)
	}
	if s.Score != 42 {
		t.Errorf("Score = %d", s.Score)
	}
	if !s.Created.Equal(created) {
		t.Errorf("Created = %v, want %v", s.Created, created)
	}
	if s.IsSelf {
		t.Error("IsSelf = true for a link post")
	}
}

func TestFromPostSelfPost(t *testing.T) {
	t.Parallel()

	p := &api.Post{
		ID:         "1ghijk",
		Title:      "Trip report",
		IsSelfPost: true,
		Body:       "It was long.\n\nhttps://i.redd.it/abc.jpg",
	}

	s := fromPost(p)
	if !s.IsSelf {
		t.Error("IsSelf = false for a self post")
	}
	if s.SelfText != p.Body {
		t.Errorf("SelfText = %q", s.SelfText)
	}
	if !s.Created.IsZero() {
		t.Errorf("Created = %v for a post without a timestamp", s.Created)
	}
}

func TestNewSelectsClientKind(t *testing.T) {
	t.Parallel()

	// Full credentials build a script-auth client.
	c, err := New(Credentials{ID: "id", Secret: "secret", Username: "user", Password: "pass"}, "test-agent/1.0")
	if err != nil {
		t.Fatalf("New with credentials: %v", err)
	}
	if c == nil || c.api == nil {
		t.Fatal("New returned a nil client")
	}

	// Missing username/password falls back to read-only browsing.
	c, err = New(Credentials{ID: "id", Secret: "secret"}, "test-agent/1.0")
	if err != nil {
		t.Fatalf("New read-only: %v", err)
	}
	if c == nil || c.api == nil {
		t.Fatal("New returned a nil read-only client")
	}
}
