package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newAuthCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorizes read-only access to Google Calendar",
		Long: `Obtain a token for the configured OAuth client and store it in the token file.

A valid stored token is reused and an expired one is refreshed. Otherwise the
consent page is opened in a browser. Use --force to discard the stored token
and log in again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := opts.setup(ctx)
			if err != nil {
				return err
			}
			defer env.close()

			auth, store, err := env.authenticator()
			if err != nil {
				return err
			}

			if force {
				if err := store.Remove(); err != nil {
					return fmt.Errorf("failed to remove stored token: %w", err)
				}
			}

			session, err := auth.Authenticate(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Authenticated (%s), token stored in %s\n", session.Variant, env.cfg.TokenFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "discard the stored token and run the browser login")
	return cmd
}
