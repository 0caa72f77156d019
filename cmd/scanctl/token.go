package main

import (
	"fmt"

	"github.com/spf13/cobra"

	jwtmw "inimage_backend/internal/platform/jwt"
)

func newTokenCmd(c *cli) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a back office bearer token signed with auth.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := jwtmw.NewGenerator(c.cfg.Auth.JWTSecret, c.cfg.Auth.TokenTTL).GenerateToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator name written to the sub claim")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
