package reddit

import (
	"context"
	"time"

	api "github.com/vartanbeno/go-reddit/v2/reddit"
)

// pageLimit is the most submissions the listing endpoint hands out per
// request.
const pageLimit = 100

// Submission is one entry of a subreddit listing.
type Submission struct {
	ID        string
	Title     string
	URL       string
	Permalink string
	Subreddit string
	Author    string
	Score     int
	Created   time.Time
	IsSelf    bool
	SelfText  string
}

// Credentials configures API access. Username and password are optional;
// without them the client browses read-only, which is enough for public
// subreddits.
type Credentials struct {
	ID       string
	Secret   string
	Username string
	Password string
}

// Client pages through subreddit listings, newest first.
type Client struct {
	api *api.Client
}

// New builds a client from the given credentials, identifying itself as
// userAgent. No request is sent until the first page is asked for.
func New(creds Credentials, userAgent string) (*Client, error) {
	var (
		c   *api.Client
		err error
	)

	if creds.Username != "" && creds.Password != "" {
		c, err = api.NewClient(api.Credentials{
			ID:       creds.ID,
			Secret:   creds.Secret,
			Username: creds.Username,
			Password: creds.Password,
		}, api.WithUserAgent(userAgent))
	} else {
		c, err = api.NewReadonlyClient(api.WithUserAgent(userAgent))
	}
	if err != nil {
		return nil, err
	}

	return &Client{api: c}, nil
}

// NewPage fetches one page of the subreddit's newest submissions, at most
// limit of them, and returns the cursor for the page after it. An empty
// cursor means the listing is exhausted.
func (c *Client) NewPage(ctx context.Context, subreddit string, after string, limit int) ([]Submission, string, error) {
	if limit <= 0 || limit > pageLimit {
		limit = pageLimit
	}

	posts, rsp, err := c.api.Subreddit.NewPosts(ctx, subreddit, &api.ListOptions{
		Limit: limit,
		After: after,
	})
	if err != nil {
		return nil, "", err
	}

	subs := make([]Submission, 0, len(posts))
	for _, p := range posts {
		subs = append(subs, fromPost(p))
	}

	return subs, rsp.After, nil
}

// fromPost converts the API representation of a post.
func fromPost(p *api.Post) Submission {
	s := Submission{
		ID:        p.ID,
		Title:     p.Title,
		URL:       p.URL,
		Permalink: p.Permalink,
		Subreddit: p.SubredditName,
		Author:    p.Author,
		Score:     p.Score,
		IsSelf:    p.IsSelfPost,
		SelfText:  p.Body,
	}
	if p.Created != nil {
		s.Created = p.Created.Time
	}

	return s
}
