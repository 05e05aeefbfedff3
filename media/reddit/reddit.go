package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/download"
	log "github.com/sirupsen/logrus"
)

// Resolver rewrites reddit-hosted media urls. Gallery posts are expanded
// through the public post json, which lists every gallery item with its
// available renditions. It implements the media.Resolver interface.
type Resolver struct {
	hc       *http.Client
	header   http.Header
	jsonBase string
}

// NewResolver returns a resolver that identifies itself as userAgent when
// asking reddit for gallery metadata. Reddit throttles the default Go agent
// aggressively, so pass a descriptive one.
func NewResolver(hc *http.Client, userAgent string) *Resolver {
	header := http.Header{}
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}

	return &Resolver{
		hc:       hc,
		header:   header,
		jsonBase: "https://www.reddit.com",
	}
}

// Resolve passes CDN links through untouched and expands gallery links into
// their member images. See media.Resolver#Resolve for API details.
func (r *Resolver) Resolve(ctx context.Context, u string) ([]string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, nil
	}

	switch parsed.Host {
	case "i.redd.it", "preview.redd.it", "v.redd.it":
		return []string{u}, nil

	case "reddit.com", "www.reddit.com", "old.reddit.com":
		if id, ok := galleryID(parsed.Path); ok {
			return r.galleryLinks(ctx, id)
		}
	}

	return nil, nil
}

// galleryID extracts the post id from /gallery/<id> paths.
func galleryID(p string) (string, bool) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) == 2 && parts[0] == "gallery" && parts[1] != "" {
		return parts[1], true
	}

	return "", false
}

// galleryItem is one entry of a post's media_metadata. The "s" object holds
// the source rendition: stills carry "u", animated items carry "mp4" and
// sometimes "gif".
type galleryItem struct {
	Status string `json:"status"`
	S      struct {
		U   string `json:"u"`
		MP4 string `json:"mp4"`
		GIF string `json:"gif"`
	} `json:"s"`
}

// galleryLinks fetches the public post json and returns the best rendition
// of every gallery item.
func (r *Resolver) galleryLinks(ctx context.Context, id string) ([]string, error) {
	log.Debugf("expanding reddit gallery: id=%s", id)

	// raw_json=1 stops reddit from html-escaping the urls.
	u := fmt.Sprintf("%s/comments/%s.json?raw_json=1", r.jsonBase, id)

	b, err := download.Get(ctx, r.hc, u, r.header)
	if err != nil {
		return nil, err
	}

	var listings []struct {
		Data struct {
			Children []struct {
				Data struct {
					MediaMetadata map[string]galleryItem `json:"media_metadata"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode gallery json: %w", err)
	}

	var links []string
	for _, listing := range listings {
		for _, child := range listing.Data.Children {
			for _, item := range child.Data.MediaMetadata {
				switch {
				case item.S.U != "":
					links = append(links, item.S.U)
				case item.S.MP4 != "":
					links = append(links, item.S.MP4)
				case item.S.GIF != "":
					links = append(links, item.S.GIF)
				}
			}
		}
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("gallery has no media: id=%s", id)
	}

	return links, nil
}
