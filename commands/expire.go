package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"makerchecker-backend/app"
	"makerchecker-backend/makerchecker"
)

func newExpireCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "expire-overdue-requests",
		Short: "Mark pending requests older than the expiration window as expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(st.cfg, st.log)
			if err != nil {
				return err
			}
			defer closeDB(a.DB)

			n, err := a.ExpireOverdue(cmd.Context())
			if errors.Is(err, makerchecker.ErrExpirationNotConfigured) {
				fmt.Fprintln(cmd.OutOrStdout(), "request expiration is not configured; set MAKERCHECKER_REQUEST_EXPIRATION")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d requests\n", n)
			return nil
		},
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
