package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/fileutil"
	"github.com/gabriel-vasile/mimetype"
	log "github.com/sirupsen/logrus"
)

// Result describes a media file stored by Fetch.
type Result struct {
	Path   string // absolute path of the stored file
	Bytes  int64  // bytes written; 0 when identical content was already on disk
	Digest string // hex encoded sha256 of the content
}

// Fetcher streams media files to disk. Files are named after the sha256 of
// their content, so fetching the same bytes twice is free no matter which
// url they came from.
type Fetcher struct {
	hc      *http.Client
	header  http.Header
	tempDir string
	policy  Policy
}

// NewFetcher returns a fetcher that stages partial downloads in tempDir and
// identifies itself as userAgent. Transient failures are retried per policy.
func NewFetcher(hc *http.Client, tempDir string, userAgent string, policy Policy) *Fetcher {
	if hc == nil {
		hc = &http.Client{}
	}

	header := http.Header{}
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}

	return &Fetcher{
		hc:      hc,
		header:  header,
		tempDir: tempDir,
		policy:  policy,
	}
}

// Fetch downloads the media file at url u into destDir and returns where it
// ended up. The body is streamed to a temp file, sniffed, and renamed to
// <sha256>.<ext> only once it is complete, so destDir never holds partial
// files. Bytes that are not an image or video are rejected.
func (f *Fetcher) Fetch(ctx context.Context, u string, destDir string) (*Result, error) {
	var res *Result

	err := f.policy.Do(ctx, func() error {
		r, err := f.fetchOnce(ctx, u, destDir)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, u string, destDir string) (*Result, error) {
	body, err := GetBody(ctx, f.hc, u, f.header)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(f.tempDir, "srdl-*.part")
	if err != nil {
		return nil, &DiskError{Path: f.tempDir, Err: err}
	}
	tmpName := tmp.Name()

	// Only the final rename keeps the temp file.
	keep := false
	closed := false
	defer func() {
		if !closed {
			tmp.Close()
		}
		if !keep {
			os.Remove(tmpName)
		}
	}()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), NewContextReader(ctx, body))
	if err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			return nil, &DiskError{Path: tmpName, Err: err}
		}
		return nil, &TransportError{URL: u, Err: err}
	}

	if err := tmp.Close(); err != nil {
		return nil, &DiskError{Path: tmpName, Err: err}
	}
	closed = true

	mtype, err := mimetype.DetectFile(tmpName)
	if err != nil {
		return nil, &DiskError{Path: tmpName, Err: err}
	}
	if !acceptedType(mtype) {
		return nil, &UnsupportedContentTypeError{URL: u, ContentType: mtype.String()}
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	destPath := filepath.Join(destDir, digest+mtype.Extension())

	if fileutil.FileExists(destPath) {
		log.Debugf("skipping %s: content already stored: %s", u, destPath)
		return &Result{Path: destPath, Bytes: 0, Digest: digest}, nil
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		return nil, &DiskError{Path: destPath, Err: err}
	}
	keep = true

	log.Infof("downloaded %s: %d bytes", destPath, n)
	return &Result{Path: destPath, Bytes: n, Digest: digest}, nil
}

// acceptedType returns true for content we keep. Everything a media host
// serves besides images and videos is an error page of some kind.
func acceptedType(m *mimetype.MIME) bool {
	s := m.String()
	return strings.HasPrefix(s, "image/") || strings.HasPrefix(s, "video/")
}
