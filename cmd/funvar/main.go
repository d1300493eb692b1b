package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/funvibe/funvar/internal/cache"
	"github.com/funvibe/funvar/internal/service"
	"github.com/funvibe/funvar/internal/term"
	"github.com/funvibe/funvar/pkg/engine"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := &cli.Command{
		Name:  "funvar",
		Usage: "Variadic type-parameter binding engine",
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Validate definitions and bind calls from a specfile",
				ArgsUsage: "<file.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cache",
						Usage: "SQLite file persisting bindings across runs",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Enable debug logging",
					},
				},
				Action: runCheck,
			},
			{
				Name:  "serve",
				Usage: "Serve the Binder gRPC service",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Value: "localhost:7411",
						Usage: "Listen address",
					},
					&cli.StringFlag{
						Name:  "cache",
						Usage: "SQLite file persisting bindings across runs",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Enable debug logging",
					},
				},
				Action: runServe,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatalln(err)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore opens the binding cache named by the command's --cache flag,
// or returns nil when the flag is unset.
func openStore(c *cli.Command) (*cache.Store, error) {
	path := c.String("cache")
	if path == "" {
		return nil, nil
	}
	store, err := cache.OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open binding cache: %w", err)
	}
	return store, nil
}

func runCheck(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("must provide a specfile as argument")
	}
	path := c.Args().First()

	logger := newLogger(c.Bool("verbose"))

	store, err := openStore(c)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	eng, err := engine.New(logger, engine.Config{Store: store})
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	rep := newReport(term.NewPrinter(os.Stdout), eng)
	if err := rep.runFile(ctx, path, store); err != nil {
		return err
	}
	if rep.failed > 0 {
		return fmt.Errorf("%d of %d checks failed", rep.failed, rep.total)
	}
	return nil
}

func runServe(ctx context.Context, c *cli.Command) error {
	logger := newLogger(c.Bool("verbose"))

	store, err := openStore(c)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	eng, err := engine.New(logger, engine.Config{Store: store})
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	srv, err := service.NewServer(logger, eng)
	if err != nil {
		return fmt.Errorf("failed to initialize binder service: %w", err)
	}
	return srv.Serve(ctx, c.String("addr"))
}
