// Command narrate prints the generated overview of a project in the terminal,
// revealing it with the same timing as the site.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"portfolio/bootstrap"
	"portfolio/config"
	"portfolio/generate"
	"portfolio/logger"
	"portfolio/narrative"
)

const defaultProxyURL = "http://localhost:8080"

type options struct {
	configPath string
	slug       string
	proxyURL   string
	cachePath  string
	instant    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.GetConfigPath("config.yml"), "path to the YAML config file")
	flag.StringVar(&opts.slug, "slug", "", "project slug (required)")
	flag.StringVar(&opts.proxyURL, "proxy", "", "base URL of the site serving /api/generate")
	flag.StringVar(&opts.cachePath, "cache", defaultCachePath(), "file the narrative cache is kept in")
	flag.BoolVar(&opts.instant, "instant", false, "print without the reveal delays")
	flag.Parse()

	if opts.slug == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "narrate:", err)
		os.Exit(1)
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "portfolio", "narratives.json")
}

var errNoNarrative = errors.New("no overview available")

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, OutputPaths: []string{"stderr"}})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	res := bootstrap.NewResources()
	defer func() { _ = res.Close() }()

	store, err := bootstrap.ContentStore(ctx, cfg, res, log)
	if err != nil {
		return err
	}
	project, err := store.Project(ctx, opts.slug)
	if err != nil {
		return err
	}

	kv, err := narrative.OpenFileKV(opts.cachePath)
	if err != nil {
		return err
	}

	proxyURL := opts.proxyURL
	if proxyURL == "" {
		proxyURL = cfg.Narrative.ProxyURL
	}
	if proxyURL == "" {
		proxyURL = defaultProxyURL
	}

	timing := narrative.DefaultRevealTiming
	sleep := sleepContext(ctx)
	if opts.instant {
		sleep = func(time.Duration) error { return ctx.Err() }
	}

	return narrate(ctx, narrateParams{
		subject:  narrative.Subject{Slug: project.Slug, Prompt: project.Prompt},
		title:    project.Title,
		cache:    narrative.NewCache(kv, nil, cfg.Narrative.CacheTTL),
		streamer: generate.NewClient(proxyURL, cfg.Narrative.GenerateTimeout),
		timeout:  cfg.Narrative.GenerateTimeout,
		timing:   timing,
		model:    cfg.Gemini.Model,
		log:      log,
		sleep:    sleep,
	}, out)
}

type narrateParams struct {
	subject  narrative.Subject
	title    string
	cache    *narrative.Cache
	streamer narrative.Streamer
	timeout  time.Duration
	timing   narrative.RevealTiming
	model    string
	log      logger.Logger
	sleep    func(time.Duration) error
}

func narrate(ctx context.Context, p narrateParams, out io.Writer) error {
	ctrl := narrative.NewController(narrative.Options{
		Cache:    p.cache,
		Streamer: p.streamer,
		Observer: narrative.Immediate,
		Timing:   p.timing,
		Timeout:  p.timeout,
		Logger:   p.log,
		OnChange: func(s narrative.Snapshot) {
			p.log.Debug("Narrative state", logger.String("state", s.State.String()))
		},
	})
	defer ctrl.Close()

	fmt.Fprintf(out, "%s\n\nOverview_\n\n", p.title)

	ctrl.Bind(ctx, p.subject)
	snap := ctrl.Await(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(snap.Segments) == 0 {
		return errNoNarrative
	}

	if err := replay(out, snap.Segments, p.timing, p.sleep); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n\nPowered by %s (%s)\n", p.model, snap.Source)
	return nil
}
