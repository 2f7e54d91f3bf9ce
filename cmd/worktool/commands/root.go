package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worktool/lib/configutil"
	"worktool/lib/telemetry"
	"worktool/lib/util/serviceutil"
	"worktool/services/credentials"
	"worktool/services/payslip"
	"worktool/services/schedule"
)

type Config struct {
	Debug     bool             `json:"debug"`
	Telemetry telemetry.Config `json:"telemetry"`
	Payslip   payslip.Config   `json:"payslip"`
	Schedule  schedule.Config  `json:"schedule"`
}

var configPath *string

var rootCmd = &cobra.Command{
	Use:   "worktool",
	Short: "worktool fetches payslips and fills in the work schedule on the company portals.",
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read.")
}

// setup reads the config and initializes logging and tracing. Every
// subcommand starts here.
func setup(ctx context.Context) (Config, func()) {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	telemetry.InitSlog(cfg.Debug)

	tel, err := telemetry.Setup(ctx, "worktool", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	return cfg, func() {
		_ = tel.Shutdown(ctx)
	}
}

func credentialStore(cfg Config) credentials.Store {
	dir := cfg.Payslip.DataDir
	if dir == "" {
		dir = cfg.Schedule.DataDir
	}
	return credentials.NewStore(dir)
}

// envDefault reads a setting from the .env next to the data files,
// falling back when it is unset.
func envDefault(env map[string]string, key, fallback string) string {
	if v := env[key]; v != "" {
		return v
	}
	return fallback
}

func fillDefaults(env map[string]string) schedule.FillDefaults {
	base := schedule.DefaultFill()
	return schedule.FillDefaults{
		Start:    envDefault(env, "DEF_START", base.Start),
		End:      envDefault(env, "DEF_END", base.End),
		Rest:     envDefault(env, "DEF_REST", base.Rest),
		Midnight: envDefault(env, "DEF_MID", base.Midnight),
	}
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
