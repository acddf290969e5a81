package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scholarstream/scholarstream/internal/persona"
	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/plugin/ai"
	"github.com/scholarstream/scholarstream/server"
	"github.com/scholarstream/scholarstream/store"
	"github.com/scholarstream/scholarstream/store/db"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := profile.Load(configFile)
	if err != nil {
		return err
	}

	driver, err := db.NewDriver(p)
	if err != nil {
		return err
	}
	st := store.New(driver, p)
	defer st.Close()

	if err := st.Ping(ctx); err != nil {
		slog.Warn("store is not reachable at startup", slog.String("error", err.Error()))
	}

	personas, err := persona.NewRegistry(p.PersonaDir)
	if err != nil {
		return err
	}
	if err := personas.Watch(ctx); err != nil {
		slog.Warn("persona hot reload disabled", slog.String("error", err.Error()))
	}

	provider := ai.NewProvider(p)

	srv := server.NewServer(p, st, provider, personas)
	return srv.Start(ctx)
}
