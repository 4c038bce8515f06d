package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/store"
	"github.com/somahq/soma/internal/tenant"
)

func newResolveCmd(c *cli) *cobra.Command {
	var email, host string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resuelve un store por email o por host contra el store configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (email == "") == (host == "") {
				return errors.New("resolve: pass exactly one of --email or --host")
			}
			ctx := cmd.Context()

			m := store.NewManager(storeConfig(c))
			defer m.Close()
			ds, err := m.Store(ctx)
			if err != nil {
				return err
			}
			repos := store.NewRepositories(ds, store.WithPlatformDomains(c.cfg.Tenancy.BaseDomains...))
			r := tenant.New(repos.Users, repos.Stores, tenant.Config{
				BaseDomains:        c.cfg.Tenancy.BaseDomains,
				ReservedSubdomains: c.cfg.Tenancy.ReservedSubdomains,
				LookupTimeout:      c.cfg.Tenancy.LookupTimeout,
			})

			out := map[string]any{"storeId": nil}
			if email != "" {
				id, err := r.ResolveEmail(ctx, email)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				if err == nil {
					out["storeId"] = id
				}
			} else {
				res, err := r.ResolveHost(ctx, host)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				if err == nil {
					out["storeId"] = res.StoreID
					out["strategy"] = res.Strategy
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("resolve: write output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email del usuario")
	cmd.Flags().StringVar(&host, "host", "", "host (subdominio de la plataforma o dominio custom)")
	return cmd
}
