package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// Options holds the parsed command line.
type Options struct {
	Subreddits []string // Subreddits to scrape.
	DataDir    string   // Root directory for downloaded media.
	TempDir    string   // Staging directory for partial downloads.
	MetaDir    string   // Directory holding the duplicate map.
	Limit      int      // Max submissions to walk per subreddit.
	Jobs       int      // Number of downloads to run in parallel.
	Refresh    bool     // Also re-walk subreddits already on disk.
	NoNotify   bool     // Skip the completion desktop notification.
	Verbose    bool     // True for verbose output.
}

func parseArgs() (*Options, error) {
	dataDir := flag.String("d", "", "data directory (overrides SRDL_DATA_DIR)")
	tempDir := flag.String("t", "", "temp directory (overrides SRDL_TEMP_DIR; default <data>/temp)")
	metaDir := flag.String("m", "", "meta directory (default <data>/meta)")
	limit := flag.Int("l", 1000, "max submissions per subreddit")
	jobs := flag.Int("j", 4, "parallel downloads")
	refresh := flag.Bool("r", false, "also refresh every subreddit already in the data directory")
	noNotify := flag.Bool("no-notify", false, "skip the completion notification")
	verbose := flag.Bool("v", false, "verbose output")

	flag.Usage = usage
	flag.Parse()

	if *jobs < 1 {
		return nil, fmt.Errorf("invalid job count: %d", *jobs)
	}
	if *limit < 1 {
		return nil, fmt.Errorf("invalid submission limit: %d", *limit)
	}

	return &Options{
		Subreddits: flag.Args(),
		DataDir:    *dataDir,
		TempDir:    *tempDir,
		MetaDir:    *metaDir,
		Limit:      *limit,
		Jobs:       *jobs,
		Refresh:    *refresh,
		NoNotify:   *noNotify,
		Verbose:    *verbose,
	}, nil
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [option]... <subreddit>...\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(flag.CommandLine.Output(), "Downloads the media of every new submission in the given subreddits.\n")
	fmt.Fprintf(flag.CommandLine.Output(), "With no subreddits, refreshes the ones already in the data directory.\n")
	flag.PrintDefaults()
}
