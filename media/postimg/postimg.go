package postimg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/download"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/web"
	"golang.org/x/net/html"
)

// Gallery pages embed the full-size url of each image as the background of
// its anchor.
var linkRegexp = regexp.MustCompile(`background-image:url\('(https://i\.postimg\.cc/[^']+)'\)`)

// Resolver rewrites postimg page urls into their CDN image urls. The
// i.postimg.cc CDN itself needs no rewriting and is left to the fallback
// resolver. It implements the media.Resolver interface.
type Resolver struct {
	hc *http.Client
}

func NewResolver(hc *http.Client) *Resolver {
	return &Resolver{
		hc: hc,
	}
}

// Resolve rewrites postimg.cc gallery and image pages. See
// media.Resolver#Resolve for API details.
func (r *Resolver) Resolve(ctx context.Context, u string) ([]string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, nil
	}
	if parsed.Host != "postimg.cc" && parsed.Host != "www.postimg.cc" {
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

	if strings.HasPrefix(path, "gallery/") {
		return galleryLinks(doc)
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

// galleryLinks extracts the full-size image urls from a gallery page.
func galleryLinks(doc *html.Node) ([]string, error) {
	var links []string
	for _, a := range web.Anchors(doc) {
		matches := linkRegexp.FindStringSubmatch(a.Style)
		if len(matches) > 1 {
			links = append(links, matches[1])
		}
	}
	if len(links) == 0 {
		return nil, errors.New("gallery page embeds no images")
	}

	return links, nil
}

// imageLinks extracts the CDN source of a single-image page.
func imageLinks(doc *html.Node) ([]string, error) {
	for _, src := range web.ImageSources(doc) {
		if strings.HasPrefix(src, "https://i.postimg.cc/") {
			return []string{src}, nil
		}
	}

	return nil, errors.New("image page carries no cdn link")
}
