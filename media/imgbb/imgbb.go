package imgbb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/download"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/web"
	"golang.org/x/net/html"
)

const cdnPrefix = "https://i.ibb.co/"

// Resolver rewrites imgbb page urls into their CDN image urls. The i.ibb.co
// CDN itself needs no rewriting and is left to the fallback resolver. It
// implements the media.Resolver interface.
type Resolver struct {
	hc *http.Client
}

func NewResolver(hc *http.Client) *Resolver {
	return &Resolver{
		hc: hc,
	}
}

// Resolve rewrites ibb.co album and image pages. See media.Resolver#Resolve
// for API details.
func (r *Resolver) Resolve(ctx context.Context, u string) ([]string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, nil
	}
	if parsed.Host != "ibb.co" && parsed.Host != "www.ibb.co" {
		return nil, nil
	}
	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return nil, nil
	}

	doc, err := r.fetchPage(ctx, u)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(path, "album/") {
		return albumLinks(doc)
	}

	return imageLinks(doc)
}

// fetchPage downloads and parses an html page.
func (r *Resolver) fetchPage(ctx context.Context, u string) (*html.Node, error) {
	body, err := download.GetBody(ctx, r.hc, u, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := html.Parse(download.NewContextReader(ctx, body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return doc, nil
}

// albumLinks extracts the image urls embedded in an album page.
func albumLinks(doc *html.Node) ([]string, error) {
	var links []string
	for _, src := range web.ImageSources(doc) {
		if strings.HasPrefix(src, cdnPrefix) {
			links = append(links, src)
		}
	}
	if len(links) == 0 {
		return nil, errors.New("album page embeds no images")
	}

	return links, nil
}

// imageLinks extracts the CDN source of a single-image page. Pages embedding
// more than one candidate are rejected.
func imageLinks(doc *html.Node) ([]string, error) {
	var target string
	for _, src := range web.ImageSources(doc) {
		if !strings.HasPrefix(src, cdnPrefix) {
			continue
		}
		if target != "" {
			return nil, fmt.Errorf("image page embeds multiple candidates: first=%s second=%s", target, src)
		}
		target = src
	}
	if target == "" {
		return nil, errors.New("image page carries no cdn link")
	}

	return []string{target}, nil
}
