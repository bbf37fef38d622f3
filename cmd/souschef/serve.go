package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/souschef/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr string
		noAI bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dialogue sessions over HTTP",
		Long: `Exposes the dialogue engine as a JSON API:

  GET    /recipes
  POST   /sessions            {"recipe_id": "...", "user_id": "..."}
  GET    /sessions/:id
  DELETE /sessions/:id
  POST   /sessions/:id/turns  {"text": "..."}
  GET    /metrics, /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := a.openDB()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			eng := a.newEngine(db, a.agent(noAI))
			return server.New(eng, a.log).Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "use keyword matching only")
	return cmd
}
