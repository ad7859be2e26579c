package config

import (
	"context"
	"fmt"
	"os"
	"time"

	getter "github.com/hashicorp/go-getter"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "config").Logger()
}

// FetchRegistry downloads a registry directory into dst. src takes any
// go-getter source, e.g. "github.com/org/repo//registry" or an https archive.
func FetchRegistry(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	pwd, err := os.Getwd()
	if err != nil {
		return err
	}
	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeDir,
		Detectors: []getter.Detector{
			&getter.GitHubDetector{},
			&getter.GitDetector{},
			&getter.FileDetector{},
		},
		Getters: map[string]getter.Getter{
			"git":   &getter.GitGetter{},
			"file":  &getter.FileGetter{Copy: true},
			"http":  &getter.HttpGetter{},
			"https": &getter.HttpGetter{},
		},
	}
	log.Info().Str("src", src).Str("dst", dst).Msg("Downloading chain registry")
	if err := client.Get(); err != nil {
		return fmt.Errorf("failed to download registry: %w", err)
	}
	return nil
}
