package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/JosephSalisbury/xirivellacal/app"
)

type Globals struct {
	Config  string `short:"c" help:"Path to a YAML configuration file (environment only when empty)"`
	Verbose bool   `short:"v" help:"Enable debug logging"`
}

type cli struct {
	Globals

	Serve    serveCmd    `cmd:"" default:"1" help:"Serve the calendar feed over HTTP"`
	Generate generateCmd `cmd:"" help:"Build the calendar once and write it to a file"`
}

type serveCmd struct {
	Port string `help:"Port to listen on (overrides PORT)"`
}

func (c *serveCmd) Run(g *Globals) error {
	cfg, log, err := setup(g)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if c.Port != "" {
		cfg.Port = c.Port
	}

	srv := app.NewServer(cfg, app.NewService(cfg, log), log)
	router := srv.Router()
	router.Handle("/metrics", app.MetricsHandler())

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", httpServer.Addr), zap.String("feed", cfg.FeedPath))
		errCh <- httpServer.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type generateCmd struct {
	Output string `short:"o" help:"File to write" default:"partidos_xirivella.ics" type:"path"`
}

func (c *generateCmd) Run(g *Globals) error {
	cfg, log, err := setup(g)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	events, err := generate(context.Background(), app.NewService(cfg, log), c.Output)
	if err != nil {
		return err
	}

	color.Green("Wrote %s", c.Output)
	for _, e := range events {
		fmt.Printf("  %s  %s\n", color.CyanString(e.Start.Format("2006-01-02 15:04")), e.Summary)
	}
	return nil
}

// generate fetches the schedule once and writes the feed to path. Nothing is
// written when the feed cannot be built.
func generate(ctx context.Context, svc *app.Service, path string) ([]app.CalendarEvent, error) {
	events, err := svc.Events(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, []byte(svc.Render(events)), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return events, nil
}

func setup(g *Globals) (app.Config, *zap.Logger, error) {
	cfg, err := app.LoadConfig(g.Config)
	if err != nil {
		return app.Config{}, nil, err
	}
	if g.Verbose {
		cfg.LogLevel = "debug"
	}

	log, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, log, nil
}

func main() {
	_ = godotenv.Load(".env")

	var c cli
	ctx := kong.Parse(&c,
		kong.Name("xirivellacal"),
		kong.Description("iCalendar feed of a team's league matches."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&c.Globals))
}
