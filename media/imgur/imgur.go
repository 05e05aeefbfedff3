package imgur

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/download"
	"github.com/koffeinsource/go-imgur"
	log "github.com/sirupsen/logrus"
)

// hashLen is the length of a current imgur image or album hash.
const hashLen = 7

// albumInfoDataWrapper is the envelope the v3 API wraps album responses in.
type albumInfoDataWrapper struct {
	AI      *imgur.AlbumInfo `json:"data"`
	Success bool             `json:"success"`
	Status  int              `json:"status"`
}

// imageInfoDataWrapper is the envelope the v3 API wraps image responses in.
type imageInfoDataWrapper struct {
	II      *imgur.ImageInfo `json:"data"`
	Success bool             `json:"success"`
	Status  int              `json:"status"`
}

// Resolver rewrites imgur urls into direct image links. It implements the
// media.Resolver interface.
type Resolver struct {
	hc      *http.Client
	header  http.Header
	apiBase string
}

// NewResolver returns a resolver that authenticates with the given API
// client id.
func NewResolver(hc *http.Client, clientID string) *Resolver {
	return &Resolver{
		hc: hc,
		header: http.Header{
			"Authorization": []string{"Client-ID " + clientID},
		},
		apiBase: "https://api.imgur.com/3",
	}
}

// Resolve rewrites imgur album, gallery, page, and direct-image urls. See
// media.Resolver#Resolve for API details.
func (r *Resolver) Resolve(ctx context.Context, u string) ([]string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, nil
	}

	// The CDN host serves the file bytes directly.
	if parsed.Host == "i.imgur.com" {
		return []string{u}, nil
	}

	switch parsed.Host {
	case "imgur.com", "www.imgur.com", "m.imgur.com", "l.imgur.com":
	default:
		return nil, nil
	}

	p := strings.Trim(parsed.Path, "/")
	switch {
	case strings.HasPrefix(p, "a/"):
		return r.albumLinks(ctx, strings.TrimPrefix(p, "a/"))

	case strings.HasPrefix(p, "gallery/"):
		return r.albumLinks(ctx, strings.TrimPrefix(p, "gallery/"))

	case p == "" || strings.Contains(p, "/"):
		// The front page or some non-media page; nothing to download.
		return nil, nil

	default:
		// Alternate image url format:
		//     https://imgur.com/<image_id>
		return r.imageLink(ctx, strings.TrimSuffix(p, path.Ext(p)))
	}
}

// albumLinks asks the album endpoint for the urls of all images in the
// album with the given hash.
func (r *Resolver) albumLinks(ctx context.Context, hash string) ([]string, error) {
	log.Debugf("scanning imgur album: hash=%s", hash)

	if len(hash) < hashLen {
		return nil, fmt.Errorf("imgur album hash length too short: have=%d want=%d hash=%s", len(hash), hashLen, hash)
	}
	if len(hash) > hashLen {
		// Share links prepend the album title: "my-vacation-a1b2c3d".
		trimmed := hash[len(hash)-hashLen:]
		log.Debugf("removing imgur album prefix: %s --> %s", hash, trimmed)
		hash = trimmed
	}

	b, err := download.Get(ctx, r.hc, r.apiBase+"/album/"+hash, r.header)
	if err != nil {
		return nil, err
	}

	aidw := &albumInfoDataWrapper{}
	if err := json.Unmarshal(b, aidw); err != nil {
		return nil, fmt.Errorf("failed to decode album info: %w", err)
	}
	if !aidw.Success || aidw.AI == nil {
		return nil, fmt.Errorf("album info response has success=false: hash=%s status=%d", hash, aidw.Status)
	}

	var links []string
	for _, img := range aidw.AI.Images {
		log.Debugf("detected imgur album image link: %s", img.Link)
		links = append(links, img.Link)
	}

	return links, nil
}

// imageLink asks the image endpoint for the direct link of the image with
// the given hash.
func (r *Resolver) imageLink(ctx context.Context, hash string) ([]string, error) {
	if len(hash) != hashLen {
		return nil, nil
	}

	b, err := download.Get(ctx, r.hc, r.apiBase+"/image/"+hash, r.header)
	if err != nil {
		return nil, err
	}

	iidw := &imageInfoDataWrapper{}
	if err := json.Unmarshal(b, iidw); err != nil {
		return nil, fmt.Errorf("failed to decode image info: %w", err)
	}
	if !iidw.Success || iidw.II == nil || iidw.II.Link == "" {
		return nil, fmt.Errorf("image info response has success=false: hash=%s status=%d", hash, iidw.Status)
	}

	return []string{iidw.II.Link}, nil
}
