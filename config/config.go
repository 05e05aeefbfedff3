package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment keys. Reddit credentials come in a required app pair and an
// optional account pair; the account pair unlocks script-auth access.
const (
	EnvRedditClientID     = "REDDIT_CLIENT_ID"
	EnvRedditClientSecret = "REDDIT_CLIENT_SECRET"
	EnvRedditUsername     = "REDDIT_USERNAME"
	EnvRedditPassword     = "REDDIT_PASSWORD"
	EnvImgurClientID      = "IMGUR_CLIENT_ID"
	EnvDataDir            = "SRDL_DATA_DIR"
	EnvTempDir            = "SRDL_TEMP_DIR"
)

// dupmapFilename is where the duplicate map lives inside the meta
// directory.
const dupmapFilename = "dupmap.json"

// Config carries everything main needs to wire the program together.
type Config struct {
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	ImgurClientID      string

	DataDir string
	TempDir string
	MetaDir string
}

// MissingError lists every required environment key the run is missing,
// not just the first one found.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required environment: " + strings.Join(e.Keys, ", ")
}

// FromEnv reads the environment. Directory keys may stay empty here; flags
// can still supply them before Finalize runs.
func FromEnv() (*Config, error) {
	cfg := &Config{
		RedditClientID:     os.Getenv(EnvRedditClientID),
		RedditClientSecret: os.Getenv(EnvRedditClientSecret),
		RedditUsername:     os.Getenv(EnvRedditUsername),
		RedditPassword:     os.Getenv(EnvRedditPassword),
		ImgurClientID:      os.Getenv(EnvImgurClientID),
		DataDir:            os.Getenv(EnvDataDir),
		TempDir:            os.Getenv(EnvTempDir),
	}

	var missing []string
	for _, kv := range []struct {
		key string
		val string
	}{
		{EnvRedditClientID, cfg.RedditClientID},
		{EnvRedditClientSecret, cfg.RedditClientSecret},
		{EnvImgurClientID, cfg.ImgurClientID},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Keys: missing}
	}

	if (cfg.RedditUsername == "") != (cfg.RedditPassword == "") {
		return nil, fmt.Errorf("%s and %s must be set together", EnvRedditUsername, EnvRedditPassword)
	}

	return cfg, nil
}

// Finalize absolutizes the data directory and fills the directory defaults
// that hang off it. It fails if no data directory was configured at all.
func (c *Config) Finalize() error {
	if c.DataDir == "" {
		return errors.New("no data directory configured")
	}

	abs, err := filepath.Abs(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = abs

	if c.TempDir == "" {
		c.TempDir = filepath.Join(c.DataDir, "temp")
	}
	if c.MetaDir == "" {
		c.MetaDir = filepath.Join(c.DataDir, "meta")
	}

	return nil
}

// DupmapPath returns where the duplicate map is persisted.
func (c *Config) DupmapPath() string {
	return filepath.Join(c.MetaDir, dupmapFilename)
}
