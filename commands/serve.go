package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"makerchecker-backend/app"
	"makerchecker-backend/database"
	"makerchecker-backend/makerchecker"
)

func newServeCmd(st *state) *cobra.Command {
	var (
		migrate        bool
		expireInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(st.cfg, st.log)
			if err != nil {
				return err
			}
			defer closeDB(a.DB)

			if migrate {
				if err := database.Migrate(a.DB); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if expireInterval > 0 {
				go expireEvery(ctx, a, expireInterval)
			}

			server := a.HTTP()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.ShutdownWithContext(shutdownCtx); err != nil {
					st.log.WithError(err).Warn("http shutdown")
				}
			}()

			st.log.WithField("port", st.cfg.HTTP.Port).Info("API server starting")
			return server.Listen(":" + st.cfg.HTTP.Port)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations before serving")
	cmd.Flags().DurationVar(&expireInterval, "expire-interval", 0, "Run the expiry sweep on this interval (0 disables)")
	return cmd
}

func expireEvery(ctx context.Context, a *app.App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.ExpireOverdue(ctx); err != nil {
				if errors.Is(err, makerchecker.ErrExpirationNotConfigured) {
					a.Log.Warn("expiry sweep disabled: request expiration is not configured")
					return
				}
				a.Log.WithError(err).Error("expiry sweep failed")
			}
		}
	}
}
