package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/wishlist-backend/internal/data/db"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Auto-migrate the schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			theDB, err := db.Open(log, cfg.DB)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close(theDB)

			if err := db.AutoMigrateAll(theDB); err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}
			log.Info("Migration complete", "driver", cfg.DB.Driver)
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
