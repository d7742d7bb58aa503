package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/moverscan/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the SQLite schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewSQLite(cfg.Store.DSN)
		if err != nil {
			return eris.Wrap(err, "open sqlite store")
		}
		defer st.Close()

		if err := st.Migrate(cmd.Context()); err != nil {
			return eris.Wrap(err, "migrate")
		}

		zap.L().Info("migration complete", zap.String("dsn", cfg.Store.DSN))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
