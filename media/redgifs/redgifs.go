package redgifs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/download"
	log "github.com/sirupsen/logrus"
)

// Resolver rewrites redgifs urls into the highest quality media link the
// API offers. The API hands out short-lived anonymous bearer tokens; one is
// fetched on first use and kept for the life of the run. It implements the
// media.Resolver interface.
type Resolver struct {
	hc      *http.Client
	apiBase string

	tokenMtx sync.Mutex // Protects the "token" field.
	token    string
}

func NewResolver(hc *http.Client) *Resolver {
	return &Resolver{
		hc:      hc,
		apiBase: "https://api.redgifs.com/v2",
	}
}

// Resolve rewrites redgifs watch and direct urls. See media.Resolver#Resolve
// for API details.
func (r *Resolver) Resolve(ctx context.Context, u string) ([]string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, nil
	}
	if !isRedgifsHost(parsed.Host) {
		return nil, nil
	}

	id := contentID(parsed.Path)
	if id == "" {
		return nil, fmt.Errorf("cannot extract redgifs id: url=%s", u)
	}

	token, err := r.auth(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{
		"Authorization": []string{"Bearer " + token},
		"Accept":        []string{"application/json"},
	}

	b, err := download.Get(ctx, r.hc, r.apiBase+"/gifs/"+id, header)
	if err != nil {
		return nil, err
	}

	var rsp struct {
		GIF struct {
			URLs struct {
				HD string `json:"hd"`
				SD string `json:"sd"`
			} `json:"urls"`
		} `json:"gif"`
	}
	if err := json.Unmarshal(b, &rsp); err != nil {
		return nil, fmt.Errorf("failed to decode gif info: %w", err)
	}

	switch {
	case rsp.GIF.URLs.HD != "":
		return []string{rsp.GIF.URLs.HD}, nil
	case rsp.GIF.URLs.SD != "":
		log.Debugf("no hd rendition, falling back to sd: id=%s", id)
		return []string{rsp.GIF.URLs.SD}, nil
	default:
		return nil, fmt.Errorf("gif has no media urls: id=%s", id)
	}
}

// auth fetches the anonymous API token on first use and caches it.
func (r *Resolver) auth(ctx context.Context) (string, error) {
	r.tokenMtx.Lock()
	defer r.tokenMtx.Unlock()

	if r.token != "" {
		return r.token, nil
	}

	b, err := download.Get(ctx, r.hc, r.apiBase+"/auth/temporary", nil)
	if err != nil {
		return "", err
	}

	var rsp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(b, &rsp); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if rsp.Token == "" {
		return "", errors.New("auth response carries no token")
	}

	log.Debug("acquired redgifs api token")
	r.token = rsp.Token
	return r.token, nil
}

func isRedgifsHost(host string) bool {
	return host == "redgifs.com" || strings.HasSuffix(host, ".redgifs.com")
}

// contentID extracts the gif id from /watch/<id>, /i/<id>, and bare /<id>
// paths, dropping any file extension.
func contentID(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")

	switch {
	case len(parts) == 2 && (parts[0] == "watch" || parts[0] == "i" || parts[0] == "ifr"):
		return strings.TrimSuffix(parts[1], path.Ext(parts[1]))
	case len(parts) == 1 && parts[0] != "":
		return strings.TrimSuffix(parts[0], path.Ext(parts[0]))
	default:
		return ""
	}
}
