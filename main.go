package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/config"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/download"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/dupmap"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/fileutil"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/media"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/media/direct"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/media/imgbb"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/media/imgur"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/media/postimg"
	redditmedia "github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/media/reddit"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/media/redgifs"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/notify"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/reddit"
	"github.com/AstralJaeger-Graveyard/subreddit-downloader-cli/scrape"
	log "github.com/sirupsen/logrus"
)

const version = "0.3.0"

func printFatalError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

// userAgent identifies this tool to the reddit API per its client rules.
func userAgent() string {
	return fmt.Sprintf("%s:sr-downloader-cli:%s (by u/97hilfel)", runtime.GOOS, version)
}

func main() {
	opts, err := parseArgs()
	if err != nil {
		printFatalError(err)
		flag.Usage()
		os.Exit(1)
	}

	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		printFatalError(err)
		os.Exit(1)
	}

	// Flags override the environment.
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.TempDir != "" {
		cfg.TempDir = opts.TempDir
	}
	if opts.MetaDir != "" {
		cfg.MetaDir = opts.MetaDir
	}

	if err := cfg.Finalize(); err != nil {
		printFatalError(fmt.Errorf("%v: pass -d or set %s", err, config.EnvDataDir))
		os.Exit(1)
	}

	for _, dir := range []string{cfg.DataDir, cfg.TempDir, cfg.MetaDir} {
		if err := fileutil.EnsureDir(dir); err != nil {
			printFatalError(err)
			os.Exit(2)
		}
	}

	// Clear partial downloads a previous run may have left behind.
	if n, err := fileutil.SweepDir(cfg.TempDir); err != nil {
		log.WithError(err).Warnf("could not sweep temp directory: %s", cfg.TempDir)
	} else if n > 0 {
		log.Infof("removed %d stale temp files", n)
	}

	rc, err := reddit.New(reddit.Credentials{
		ID:       cfg.RedditClientID,
		Secret:   cfg.RedditClientSecret,
		Username: cfg.RedditUsername,
		Password: cfg.RedditPassword,
	}, userAgent())
	if err != nil {
		printFatalError(err)
		os.Exit(2)
	}

	subreddits := opts.Subreddits
	if opts.Refresh || len(subreddits) == 0 {
		existing, err := scrape.ExistingSubreddits(cfg.DataDir)
		if err != nil {
			printFatalError(err)
			os.Exit(2)
		}
		subreddits = append(subreddits, existing...)
	}
	subreddits = uniqueSubreddits(subreddits)
	if len(subreddits) == 0 {
		printFatalError(errors.New("nothing to do: no subreddits given and none found in the data directory"))
		flag.Usage()
		os.Exit(1)
	}

	dupes := dupmap.Load(cfg.DupmapPath())
	log.Infof("duplicate map loaded: entries=%d path=%s", dupes.Len(), dupes.Path())

	hc := &http.Client{}
	fetcher := download.NewFetcher(hc, cfg.TempDir, userAgent(), download.DefaultPolicy())
	registry := media.NewRegistry(
		imgur.NewResolver(hc, cfg.ImgurClientID),
		redgifs.NewResolver(hc),
		redditmedia.NewResolver(hc, userAgent()),
		postimg.NewResolver(hc),
		imgbb.NewResolver(hc),
		direct.NewResolver(),
	)

	scraper := scrape.New(rc, registry, fetcher, dupes, scrape.Config{
		DataDir: cfg.DataDir,
		Workers: opts.Jobs,
		Limit:   opts.Limit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	start := time.Now()
	runErr := scraper.Run(ctx, subreddits)
	stop()

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			log.Warn("interrupted, flushing state")
		} else {
			log.WithError(runErr).Error("run aborted early")
		}
	}

	saveErr := dupes.Save()
	if saveErr != nil {
		log.WithError(saveErr).Error("failed to persist duplicate map, state on disk may be stale")
	}

	scraper.Stats().LogReport()
	log.Infof("finished in %s: %s", time.Since(start).Round(time.Second), scraper.Stats().Summary())

	if !opts.NoNotify {
		notify.Done("subreddit-downloader", scraper.Stats().Summary())
	}

	if saveErr != nil || scraper.FlushErr() != nil {
		os.Exit(3)
	}
}

// uniqueSubreddits drops repeated names while keeping the given order.
// Subreddit names are case-insensitive.
func uniqueSubreddits(names []string) []string {
	seen := map[string]struct{}{}

	var out []string
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}

	return out
}
