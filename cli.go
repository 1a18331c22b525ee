package main

import (
	"context"
	"encoding/json"
	"io"

	"golang.org/x/sync/errgroup"

	"sjsage522/bestpick/config"
	"sjsage522/bestpick/internal/presenter"
	"sjsage522/bestpick/logger"
	apperrors "sjsage522/bestpick/pkg/errors"
)

// CLI defines the command-line interface structure.
type CLI struct {
	Serve ServeCmd `cmd:"" help:"Serve the results panel and the find-deals endpoints"`
	Pick  PickCmd  `cmd:"" help:"Pick the winners of one search results page and print them"`
}

// Dependencies holds the values every command is run with.
type Dependencies struct {
	Ctx    context.Context
	Config *config.Config
	Stdout io.Writer
	Stderr io.Writer
}

// ServeCmd runs the presenter.
type ServeCmd struct {
	Addr   string `help:"Listen address, overrides HTTP_ADDR" placeholder:"ADDR"`
	Follow bool   `help:"Also show results other processes publish to the Redis stream"`
}

// Run starts the presenter and blocks until the context is done.
func (c *ServeCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	if c.Addr != "" {
		cfg.HTTPAddr = c.Addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	// Served requests must not read local files
	if cfg.PageSource == config.SourceFile {
		return apperrors.NewConfiguration("the file page source is only available to pick", nil)
	}

	services, err := initializeServices(deps.Ctx, cfg, true)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	log := logger.ForApp()
	log.Info().
		Str("environment", cfg.Environment).
		Str("page_source", services.Source.Name()).
		Bool("redis", services.Redis != nil).
		Bool("memcache", services.Cache != nil).
		Int("publishers", services.Publisher.Len()).
		Msg("Starting presenter")

	panel := presenter.NewPanel()
	server := presenter.NewServer(cfg, panel, services.Trigger)

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error {
		panel.Listen(ctx, services.Channel.Messages())
		return nil
	})
	if c.Follow && services.Subscriber != nil {
		g.Go(func() error {
			return services.Subscriber.Run(ctx, panel.Receive)
		})
	}
	g.Go(func() error {
		return server.Run(ctx)
	})

	err = g.Wait()
	log.Info().Msg("Shutting down gracefully...")
	return err
}

// PickCmd runs one extraction from the command line.
type PickCmd struct {
	Target string `arg:"" help:"Search results URL, or a saved page path with --source file"`
	Source string `help:"Page source: http, file, rod or chromedp; overrides PAGE_SOURCE" placeholder:"SOURCE"`
}

// Run extracts the winners of the target page and prints the message as JSON.
func (c *PickCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	if c.Source != "" {
		cfg.PageSource = c.Source
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	services, err := initializeServices(deps.Ctx, cfg, false)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	set, err := services.Trigger.Run(deps.Ctx, c.Target)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(set.Message())
}
