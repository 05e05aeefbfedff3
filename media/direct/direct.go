package direct

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// fileHosts only ever serve the file bytes at the submission url itself.
var fileHosts = map[string]struct{}{
	"i.postimg.cc":     {},
	"i.ibb.co":         {},
	"files.catbox.moe": {},
	"media.tumblr.com": {},
}

// mediaExts are file extensions worth fetching from an unknown host.
var mediaExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".mp4":  {},
	".webm": {},
}

// Resolver is the catch-all at the end of the resolver chain: it accepts
// known direct-file hosts and anything that looks like a media file by
// extension. It implements the media.Resolver interface.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve passes direct file urls through untouched. See
// media.Resolver#Resolve for API details.
func (r *Resolver) Resolve(_ context.Context, u string) ([]string, error) {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return nil, nil
	}

	if _, ok := fileHosts[parsed.Host]; ok {
		return []string{u}, nil
	}

	if _, ok := mediaExts[strings.ToLower(path.Ext(parsed.Path))]; ok {
		return []string{u}, nil
	}

	return nil, nil
}
