// Command soma corre el servicio de routing de tenants y confirmación de retiros.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/somahq/soma/internal/config"
	"github.com/somahq/soma/internal/observability/logger"

	// Los adapters se registran en init()
	_ "github.com/somahq/soma/internal/store/adapters/firestore"
	_ "github.com/somahq/soma/internal/store/adapters/memory"
	_ "github.com/somahq/soma/internal/store/adapters/pg"
)

// cli guarda el estado compartido entre subcomandos.
type cli struct {
	configPath string
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{configPath: envOr("SOMA_CONFIG", "configs/soma.yaml")}

	root := &cobra.Command{
		Use:           "soma",
		Short:         "Tenant routing y confirmación de retiros de SOMA",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional; en prod las variables vienen del entorno
			_ = godotenv.Load()

			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: cfg.App.Name,
				Version:     cfg.App.Version,
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "ruta al YAML de config (env SOMA_CONFIG)")

	root.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
		newResolveCmd(c),
		newTokenCmd(c),
	)
	return root
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
