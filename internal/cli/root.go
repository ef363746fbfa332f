package cli

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"smart-board-game/internal/config"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI. A .env file in the working directory, if present, is
// loaded into the environment first.
func Execute() error {
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded .env")
	}
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:          "smart-board-game",
		Short:        "Accounting quiz board game server",
		SilenceUsage: true,
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&port, "port", "", "port to listen on, overrides server.port (env: SMARTBOARD_PORT)")
	fs.StringVar(&configPath, "config", "config/config.yaml", "path to YAML config (env: SMARTBOARD_CONFIG)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewSeedCmd(&configPath))
	return cmd
}
