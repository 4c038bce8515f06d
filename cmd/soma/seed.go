package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/somahq/soma/internal/domain/records"
	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/observability/logger"
	"github.com/somahq/soma/internal/store"
	"github.com/somahq/soma/internal/tenant"
)

// seedFile es el formato YAML de `soma seed`.
//
//	users:
//	  - id: u123
//	    email: Jane@Example.com
//	    name: Jane
//	stores:
//	  - id: u123
//	    name: Jane's
//	    domain: jane
//	    customDomain: shop.jane.com
type seedFile struct {
	Users []struct {
		ID    string `yaml:"id"`
		Email string `yaml:"email"`
		Name  string `yaml:"name"`
	} `yaml:"users"`
	Stores []struct {
		ID           string `yaml:"id"`
		Name         string `yaml:"name"`
		Domain       string `yaml:"domain"`
		CustomDomain string `yaml:"customDomain"`
	} `yaml:"stores"`
}

// seedResult cuenta lo creado y lo que ya existía.
type seedResult struct {
	Created int
	Skipped int
}

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Carga users y stores desde un YAML (idempotente: los existentes se saltean)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := parseSeed(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			m := store.NewManager(storeConfig(c))
			defer m.Close()
			ds, err := m.Store(ctx)
			if err != nil {
				return err
			}

			repos := store.NewRepositories(ds, store.WithPlatformDomains(c.cfg.Tenancy.BaseDomains...))
			res, err := applySeed(ctx, repos, seed)
			if err != nil {
				return err
			}
			logger.L().Info("seed done", logger.Int("created", res.Created), logger.Int("skipped", res.Skipped))
			return nil
		},
	}
}

func parseSeed(r io.Reader) (*seedFile, error) {
	var s seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	return &s, nil
}

// applySeed crea users y stores. Los dominios custom se guardan normalizados
// (minúsculas, ASCII) porque la resolución por host compara igualdad exacta.
// Un conflicto se saltea sólo si el documento ya existe con ese id; si el email
// o el dominio pertenecen a otro documento el seed falla.
func applySeed(ctx context.Context, repos store.Repositories, s *seedFile) (seedResult, error) {
	var res seedResult
	log := logger.From(ctx).With(logger.Op("seed"))

	count := func(err error, what, id string, owners ...ownerLookup) error {
		switch {
		case err == nil:
			res.Created++
			return nil
		case errors.Is(err, repository.ErrConflict):
			for _, o := range owners {
				owner, ferr := o.find(ctx)
				if ferr != nil && !errors.Is(ferr, repository.ErrNotFound) {
					return fmt.Errorf("seed %s %s: check %s: %w", what, id, o.field, ferr)
				}
				if ferr == nil && owner != id {
					return fmt.Errorf("seed %s %s: %s %q already belongs to %s: %w", what, id, o.field, o.value, owner, repository.ErrConflict)
				}
			}
			res.Skipped++
			log.Info("already exists, skipping", logger.String("kind", what), logger.DocID(id))
			return nil
		default:
			return fmt.Errorf("seed %s %s: %w", what, id, err)
		}
	}

	for _, u := range s.Users {
		email := records.NormalizeEmail(u.Email)
		err := repos.Users.Create(ctx, records.User{ID: u.ID, Email: u.Email, Name: u.Name})
		if err := count(err, "user", u.ID, ownerLookup{field: "email", value: email, find: func(ctx context.Context) (string, error) {
			existing, err := repos.Users.FindByEmail(ctx, email)
			if err != nil {
				return "", err
			}
			return existing.ID, nil
		}}); err != nil {
			return res, err
		}
	}

	for _, st := range s.Stores {
		custom := strings.TrimSpace(st.CustomDomain)
		if custom != "" {
			host, err := tenant.NormalizeHost(custom)
			if err != nil {
				return res, fmt.Errorf("seed store %s: customDomain %q: %w", st.ID, custom, err)
			}
			custom = host
		}
		domain := strings.ToLower(strings.TrimSpace(st.Domain))
		err := repos.Stores.Create(ctx, records.Store{
			ID:           st.ID,
			Name:         st.Name,
			Domain:       domain,
			CustomDomain: custom,
		})

		var owners []ownerLookup
		if domain != "" {
			owners = append(owners, storeOwner("domain", domain, repos.Stores.FindBySubdomain))
		}
		if custom != "" {
			owners = append(owners, storeOwner("customDomain", custom, repos.Stores.FindByCustomDomain))
		}
		if err := count(err, "store", st.ID, owners...); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ownerLookup busca qué documento usa un valor único.
type ownerLookup struct {
	field string
	value string
	find  func(context.Context) (string, error)
}

func storeOwner(field, value string, find func(context.Context, string) (*records.Store, error)) ownerLookup {
	return ownerLookup{field: field, value: value, find: func(ctx context.Context) (string, error) {
		s, err := find(ctx, value)
		if err != nil {
			return "", err
		}
		return s.ID, nil
	}}
}
