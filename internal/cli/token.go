package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/wishlist-backend/internal/services"
)

type TokenOptions struct {
	*RootOptions
	UserID string
	Admin  bool
	TTL    time.Duration
}

// NewTokenCommand mints a bearer token signed with JWT_SECRET_KEY, for local use.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		Example: `  wishlist token --user-id 3f0c2d8e-6a35-4d4f-9d2e-5a7f1c9b0e11
  wishlist token --user-id 3f0c2d8e-6a35-4d4f-9d2e-5a7f1c9b0e11 --admin --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(opts.UserID)
			if err != nil {
				return fmt.Errorf("invalid --user-id %q: %w", opts.UserID, err)
			}
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			ttl := opts.TTL
			if ttl <= 0 {
				ttl = cfg.DevTokenTTL
			}
			auth, err := services.NewAuthService(log, cfg.JWTSecretKey)
			if err != nil {
				return err
			}
			tok, err := auth.IssueToken(userID, opts.Admin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.UserID, "user-id", "", "user id to put in the token subject")
	cmd.Flags().BoolVar(&opts.Admin, "admin", false, "grant the admin claim")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "token lifetime (default DEV_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
