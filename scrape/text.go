package scrape

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/fileutil"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/reddit"
	"github.com/flytam/filenamify"
	log "github.com/sirupsen/logrus"
	"mvdan.cc/xurls/v2"
)

// titleMaxLen bounds the sanitized title inside a text post's filename.
const titleMaxLen = 80

var linkRegexp = xurls.Strict()

// handleTextPost saves a self post's body as markdown, records it, and then
// downloads any media its body links to.
func (s *Scraper) handleTextPost(ctx context.Context, sub reddit.Submission, targetDir string) {
	filename, err := textFilename(sub)
	if err != nil {
		s.stats.MarkFailure()
		log.WithError(err).Errorf("cannot derive text post filename: id=%s", sub.ID)
		return
	}

	destPath := filepath.Join(targetDir, filename)
	if fileutil.FileExists(destPath) {
		log.Debugf("text post already on disk: path=%s", destPath)
	} else {
		if err := os.WriteFile(destPath, []byte(renderText(sub)), 0644); err != nil {
			s.stats.MarkFailure()
			log.WithError(err).Errorf("failed to write text post: id=%s path=%s", sub.ID, destPath)
			return
		}
		log.Infof("saved text post: %s", destPath)
	}

	s.stats.MarkText()
	s.record(sub.ID, destPath)

	s.fetchEmbedded(ctx, sub, targetDir)
}

// fetchEmbedded downloads media linked from a self post's body. These are
// bonus content; their failures are counted but do not undo the record.
func (s *Scraper) fetchEmbedded(ctx context.Context, sub reddit.Submission, targetDir string) {
	for _, link := range linkRegexp.FindAllString(sub.SelfText, -1) {
		if ctx.Err() != nil {
			return
		}

		urls, err := s.resolver.Resolve(ctx, link)
		if err != nil {
			s.stats.MarkFailure()
			log.WithError(err).Errorf("failed to resolve embedded link: id=%s link=%s", sub.ID, link)
			continue
		}

		for _, u := range urls {
			if ctx.Err() != nil {
				return
			}

			s.stats.MarkAttempt(hostOf(u))

			if _, err := s.fetcher.Fetch(ctx, u, targetDir); err != nil {
				s.stats.MarkFailure()
				log.WithError(err).Errorf("failed to download embedded media: id=%s url=%s", sub.ID, u)
				continue
			}
			s.stats.MarkSuccess()
		}
	}
}

// textFilename derives "<id>_<sanitized title>.md" for a self post.
func textFilename(sub reddit.Submission) (string, error) {
	title, err := filenamify.Filenamify(strings.ToLower(sub.Title), filenamify.Options{
		Replacement: "_",
		MaxLength:   titleMaxLen,
	})
	if err != nil {
		return "", err
	}
	title = strings.ReplaceAll(title, " ", "_")

	return sub.ID + "_" + title + ".md", nil
}

// renderText renders a self post as markdown with a small metadata header.
func renderText(sub reddit.Submission) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", sub.Title)
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Subreddit: %s\n", sub.Subreddit)
	fmt.Fprintf(&b, "Author: %s\n", sub.Author)
	fmt.Fprintf(&b, "Score: %d\n", sub.Score)
	if !sub.Created.IsZero() {
		fmt.Fprintf(&b, "Created: %s\n", sub.Created.UTC().Format(time.RFC3339))
	}
	b.WriteString("---\n\n")
	b.WriteString(sub.SelfText)
	b.WriteString("\n")

	return b.String()
}
