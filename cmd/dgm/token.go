package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inamate/inamate/diagram-go/internal/auth"
	"github.com/inamate/inamate/diagram-go/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token <display name>",
	Short: "Issue a session token signed with JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		svc, err := auth.NewService(cfg.JWTSecret)
		if err != nil {
			return err
		}
		token, user, err := svc.IssueToken(userID, args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "user %s (%s)\n", user.ID, user.DisplayName)
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "User id (a new one is generated when empty)")
	tokenCmd.Flags().Duration("ttl", auth.DefaultTTL, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
