package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/somahq/soma/internal/jwt"
)

func newTokenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Utilidades de bearer tokens del dashboard",
	}

	var sub, role string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Emite un bearer token firmado con jwt.secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case jwt.RoleVendor, jwt.RoleAdmin:
			default:
				return fmt.Errorf("token: unknown role %q", role)
			}
			iss, err := jwt.NewIssuer(c.cfg.JWT.Secret, c.cfg.JWT.Issuer, c.cfg.JWT.TTL)
			if err != nil {
				return err
			}
			tok, exp, err := iss.Issue(sub, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.UTC().Format(time.RFC3339))
			return nil
		},
	}
	issue.Flags().StringVar(&sub, "sub", "", "store id del vendor (claim sub)")
	issue.Flags().StringVar(&role, "role", jwt.RoleVendor, "vendor | admin")
	_ = issue.MarkFlagRequired("sub")

	cmd.AddCommand(issue)
	return cmd
}
