package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/download"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/dupmap"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/fileutil"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/reddit"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// subredditDirPrefix marks the per-subreddit directories under the data
// directory.
const subredditDirPrefix = "ws-"

// maxListingAttempts bounds retries of a failed listing page before the
// subreddit is given up on.
const maxListingAttempts = 3

// SubmissionSource pages through a subreddit's newest submissions.
// reddit.Client is the production implementation.
type SubmissionSource interface {
	NewPage(ctx context.Context, subreddit string, after string, limit int) ([]reddit.Submission, string, error)
}

// Resolver rewrites a submission url into direct media urls. media.Registry
// is the production implementation.
type Resolver interface {
	Resolve(ctx context.Context, u string) ([]string, error)
}

// Fetcher stores the media file behind a direct url. download.Fetcher is the
// production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, u string, destDir string) (*download.Result, error)
}

// Config carries the orchestration knobs.
type Config struct {
	DataDir    string
	Workers    int // concurrent downloads; default 4
	Limit      int // max submissions walked per subreddit; default 1000
	FlushEvery int // persist the duplicate map every N new records; default 50
}

// Scraper walks subreddits and downloads each submission's media exactly
// once across runs.
type Scraper struct {
	source   SubmissionSource
	resolver Resolver
	fetcher  Fetcher
	dupes    *dupmap.Map
	stats    *Stats
	inflight *inflight

	dataDir    string
	workers    int
	limit      int
	flushEvery int

	// listingBackoff spaces retries of a failed listing page.
	listingBackoff time.Duration

	mtx      sync.Mutex // Protects the two fields below.
	recorded int
	flushErr error
}

// New wires a scraper together. Zero config fields fall back to defaults.
func New(source SubmissionSource, resolver Resolver, fetcher Fetcher, dupes *dupmap.Map, cfg Config) *Scraper {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 1000
	}
	flushEvery := cfg.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 50
	}

	return &Scraper{
		source:         source,
		resolver:       resolver,
		fetcher:        fetcher,
		dupes:          dupes,
		stats:          NewStats(),
		inflight:       newInflight(),
		dataDir:        cfg.DataDir,
		workers:        workers,
		limit:          limit,
		flushEvery:     flushEvery,
		listingBackoff: time.Second,
	}
}

// Stats exposes the run counters.
func (s *Scraper) Stats() *Stats {
	return s.stats
}

// FlushErr returns the first duplicate map flush failure of the run, if
// any. The operator must learn about a stale map even when scraping itself
// went fine.
func (s *Scraper) FlushErr() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.flushErr
}

// Run processes each subreddit in order. A subreddit whose listing cannot
// be read is logged and skipped; per-submission failures are counted, never
// fatal. Run returns early with the context's error on cancellation.
func (s *Scraper) Run(ctx context.Context, subreddits []string) error {
	for _, name := range subreddits {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.scrapeSubreddit(ctx, name); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.WithError(err).Errorf("giving up on subreddit: name=%s", name)
		}
	}

	return nil
}

// scrapeSubreddit downloads one subreddit's new submissions with a pool of
// worker goroutines fed from the listing.
func (s *Scraper) scrapeSubreddit(ctx context.Context, name string) error {
	targetDir := filepath.Join(s.dataDir, subredditDirPrefix+strings.ToLower(name))
	if err := fileutil.EnsureDir(targetDir); err != nil {
		return err
	}

	log.Infof("scraping subreddit: name=%s dir=%s", name, targetDir)
	start := time.Now()
	before := s.dupes.Len()

	g := &errgroup.Group{}
	var walkErr error

	startGoroutines := func() {
		subChan := make(chan reddit.Submission)
		defer close(subChan)

		// Create a set of goroutines to download media in parallel.
		for i := 0; i < s.workers; i++ {
			g.Go(func() error {
				// Read submissions from the channel and handle them
				// sequentially until the channel closes. Failures are
				// counted inside, never returned.
				for sub := range subChan {
					s.handleSubmission(ctx, sub, targetDir)
				}
				return nil
			})
		}

		walkErr = s.walkListing(ctx, name, subChan)
	}

	startGoroutines()
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.dupes.Save(); err != nil {
		log.WithError(err).Errorf("failed to flush duplicate map: subreddit=%s", name)
		s.noteFlushErr(err)
	}

	log.Infof("subreddit done: name=%s new=%d total=%d elapsed=%s",
		name, s.dupes.Len()-before, s.dupes.Len(), time.Since(start).Round(time.Millisecond))

	return walkErr
}

// walkListing feeds up to limit of the subreddit's newest submissions into
// out. Submissions already recorded or already in flight are skipped here,
// before they ever occupy a worker.
func (s *Scraper) walkListing(ctx context.Context, name string, out chan<- reddit.Submission) error {
	var after string

	seen := 0
	for seen < s.limit {
		page, next, err := s.fetchListingPage(ctx, name, after, s.limit-seen)
		if err != nil {
			return fmt.Errorf("listing %s: %w", name, err)
		}
		if len(page) == 0 {
			return nil
		}

		for _, sub := range page {
			if seen >= s.limit {
				return nil
			}
			seen++
			s.stats.MarkSeen()

			if s.dupes.Contains(sub.ID) {
				s.stats.MarkDuplicate()
				log.Debugf("skipping submission, already downloaded: id=%s", sub.ID)
				continue
			}
			if !s.inflight.begin(sub.ID) {
				// Listed twice in one run, e.g. by pagination drift.
				s.stats.MarkDuplicate()
				log.Debugf("skipping submission, already in flight: id=%s", sub.ID)
				continue
			}

			select {
			case <-ctx.Done():
				s.inflight.end(sub.ID)
				return ctx.Err()
			case out <- sub:
			}
		}

		if next == "" {
			return nil
		}
		after = next
	}

	return nil
}

// fetchListingPage asks the source for one listing page, retrying a few
// times before giving up on the subreddit.
func (s *Scraper) fetchListingPage(ctx context.Context, name string, after string, limit int) ([]reddit.Submission, string, error) {
	var (
		page []reddit.Submission
		next string
		err  error
	)

	for attempt := 1; ; attempt++ {
		page, next, err = s.source.NewPage(ctx, name, after, limit)
		if err == nil || ctx.Err() != nil || attempt >= maxListingAttempts {
			return page, next, err
		}

		log.WithError(err).Warnf("listing page failed: subreddit=%s attempt=%d/%d", name, attempt, maxListingAttempts)

		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(attempt) * s.listingBackoff):
		}
	}
}

// handleSubmission runs one submission through resolve, download, record.
// Failures are counted and logged, never propagated: one bad submission
// must not sink the batch.
func (s *Scraper) handleSubmission(ctx context.Context, sub reddit.Submission, targetDir string) {
	defer s.inflight.end(sub.ID)

	if ctx.Err() != nil {
		return
	}

	log.Debugf("processing submission: id=%s url=%s", sub.ID, sub.URL)

	if sub.IsSelf {
		s.handleTextPost(ctx, sub, targetDir)
		return
	}

	urls, err := s.resolver.Resolve(ctx, normalizeURL(sub.URL))
	if err != nil {
		s.stats.MarkFailure()
		log.WithError(err).Errorf("failed to resolve submission: id=%s url=%s", sub.ID, sub.URL)
		return
	}
	if len(urls) == 0 {
		s.stats.MarkUnsupported()
		log.Debugf("no resolver for submission: id=%s url=%s", sub.ID, sub.URL)
		return
	}

	s.downloadAll(ctx, sub, urls, targetDir)
}

// downloadAll fetches every resolved url of a submission. The submission is
// recorded once any media file lands; one whose content is gone upstream
// (404 on every link) is recorded with an empty path so later runs stop
// asking for it.
func (s *Scraper) downloadAll(ctx context.Context, sub reddit.Submission, urls []string, targetDir string) {
	var (
		recordedPath string
		succeeded    int
		notFound     int
	)

	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}

		s.stats.MarkAttempt(hostOf(u))

		res, err := s.fetcher.Fetch(ctx, u, targetDir)
		if err != nil {
			if download.IsNotFound(err) {
				notFound++
				log.Debugf("media gone upstream: url=%s", u)
				continue
			}
			s.stats.MarkFailure()
			log.WithError(err).Errorf("failed to download media: id=%s url=%s", sub.ID, u)
			continue
		}

		succeeded++
		s.stats.MarkSuccess()
		if recordedPath == "" {
			recordedPath = res.Path
		}
	}

	switch {
	case succeeded > 0:
		s.record(sub.ID, recordedPath)
	case notFound > 0 && notFound == len(urls):
		log.Infof("content deleted upstream, recording id anyway: id=%s", sub.ID)
		s.record(sub.ID, "")
	}
}

// record stores a new duplicate map entry and persists the map every
// flushEvery records.
func (s *Scraper) record(id string, path string) {
	s.dupes.Record(id, path)

	s.mtx.Lock()
	s.recorded++
	due := s.recorded%s.flushEvery == 0
	s.mtx.Unlock()

	if !due {
		return
	}

	if err := s.dupes.Save(); err != nil {
		log.WithError(err).Error("periodic duplicate map flush failed")
		s.noteFlushErr(err)
	} else {
		log.Debugf("duplicate map flushed: entries=%d", s.dupes.Len())
	}
}

func (s *Scraper) noteFlushErr(err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.flushErr == nil {
		s.flushErr = err
	}
}

// normalizeURL absolutizes the /r/... urls reddit occasionally emits for
// crossposts.
func normalizeURL(u string) string {
	if strings.HasPrefix(u, "/r/") {
		return "https://www.reddit.com" + u
	}
	return u
}

// hostOf extracts the host for per-provider accounting.
func hostOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "invalid"
	}
	return parsed.Host
}

// inflight tracks submission ids currently being worked on, so one
// submission cannot be scheduled twice within a run.
type inflight struct {
	mtx sync.Mutex // Protects the "ids" field.
	ids map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{
		ids: map[string]struct{}{},
	}
}

// begin marks id as in flight. It returns false if the id already is.
func (f *inflight) begin(id string) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if _, ok := f.ids[id]; ok {
		return false
	}

	f.ids[id] = struct{}{}
	return true
}

func (f *inflight) end(id string) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	delete(f.ids, id)
}

// ExistingSubreddits lists the subreddits already present under dataDir,
// recognized by their directory prefix. Refresh runs use it to re-walk
// everything downloaded before.
func ExistingSubreddits(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), subredditDirPrefix) {
			names = append(names, strings.TrimPrefix(e.Name(), subredditDirPrefix))
		}
	}
	sort.Strings(names)

	return names, nil
}
