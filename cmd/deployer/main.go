// Deployer — выкладка dailymotion-sdk-js на серверы приложения.
//
// Использование:
//
//	deployer [flags] <environment> <task>[:args] ...
//
// Примеры:
//
//	deployer prod release          выложить HEAD
//	deployer prod release:GIT_REF  выложить GIT_REF
//	deployer --list                список задач
//
// release копирует all.js на хосты группы app, выполняет deploy
// и сбрасывает кэш CDN для http и https адресов артефакта.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/deployer/internal/cli"
	"github.com/shaiso/deployer/internal/config"
	"github.com/shaiso/deployer/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

// flags — значения флагов командной строки.
type flags struct {
	configPath      string
	jsonOutput      bool
	dryRun          bool
	parallel        int
	list            bool
	identity        string
	insecureHostKey bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}

func newRootCmd() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "deployer [flags] <environment> <task>[:args] ...",
		Short: "Release dailymotion-sdk-js to the app servers",
		Example: "  deployer prod release\n" +
			"  deployer prod release:v1.2.3\n" +
			"  deployer --dry-run prod release",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	fs := rootCmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", config.String("DEPLOYER_CONFIG", "deployer.yaml"), "Environment profile (YAML); missing file is ignored")
	fs.BoolVar(&f.jsonOutput, "json", false, "Output in JSON format")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Print remote operations without connecting")
	fs.IntVarP(&f.parallel, "parallel", "P", 0, "Hosts processed at once within a step (default from DEPLOYER_PARALLEL, 1)")
	fs.BoolVarP(&f.list, "list", "l", false, "List available tasks")
	fs.StringVarP(&f.identity, "identity", "i", "", "SSH private key (overrides DEPLOYER_SSH_KEY)")
	fs.BoolVar(&f.insecureHostKey, "insecure-ignore-host-key", false, "Do not verify SSH host keys")

	return rootCmd
}

func run(cmd *cobra.Command, f flags, args []string) error {
	ctx := cmd.Context()
	logger := telemetry.SetupLogger(os.Stderr)

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	applyFlags(&settings, f)

	profile, err := config.LoadProfile(f.configPath)
	if err != nil {
		return err
	}

	selectors := config.DefaultSelectors()
	if err := profile.Register(selectors); err != nil {
		return err
	}

	out := cli.NewOutput(f.jsonOutput)

	deps := newDependencies(ctx, settings, f.dryRun, logger)
	defer deps.Close()

	runner := cli.NewRunner(cli.RunnerConfig{
		Selectors:    selectors,
		Base:         profile.Apply(config.Base()),
		NewTransport: deps.transportFactory(settings, f.dryRun),
		Orchestrator: deps.orchestratorConfig(settings),
		History:      deps.history,
		Output:       out,
		Logger:       logger,
	})

	if f.list {
		out.Tasks(runner.Tasks())
		return nil
	}

	invs, err := cli.ParseTasks(args)
	if errors.Is(err, cli.ErrNoTasks) {
		if uerr := cmd.Usage(); uerr != nil {
			logger.Warn("failed to print usage", "error", uerr)
		}
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	if err != nil {
		return err
	}

	err = runner.Run(ctx, invs)
	deps.pushMetrics(ctx, settings)

	return err
}

// applyFlags переопределяет настройки из переменных окружения флагами.
func applyFlags(s *config.Settings, f flags) {
	if f.parallel > 0 {
		s.Parallel = f.parallel
	}
	if f.identity != "" {
		s.SSHKey = f.identity
	}
	if f.insecureHostKey {
		s.InsecureHostKey = true
	}
}
