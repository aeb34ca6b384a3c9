package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"

	"github.com/breeze-rmm/uninstallscan/internal/appstore"
	"github.com/breeze-rmm/uninstallscan/internal/config"
	"github.com/breeze-rmm/uninstallscan/internal/health"
	"github.com/breeze-rmm/uninstallscan/internal/logging"
	"github.com/breeze-rmm/uninstallscan/internal/uninstaller"
)

var (
	version      = "0.1.0"
	cfgFile      string
	outputFormat string
	probeHelpers bool
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:           "uninstall-scan",
	Short:         "List software installed outside the uninstall registry",
	Long:          `uninstall-scan asks bundled helper executables which applications their stores installed and prints them as uninstaller entries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover installed applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context(), cmd.OutOrStdout())
	},
}

var helpersCmd = &cobra.Command{
	Use:   "helpers",
	Short: "Show helper availability and source health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHelpers(cmd.Context(), cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "uninstall-scan v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is uninstallscan.yaml in the platform config dir)")
	scanCmd.Flags().StringVarP(&outputFormat, "format", "f", formatTable, "output format: table, json or yaml")
	helpersCmd.Flags().BoolVar(&probeHelpers, "probe", false, "run each available helper once to report its health")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(helpersCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads and validates the config and points logging at the configured
// destination. The returned func closes the log file, if any.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	cleanup := func() {}
	var out io.Writer
	if cfg.LogFile != "" {
		rf, err := logging.OpenRotatingFile(cfg.LogFile, 0, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = rf
		cleanup = func() { _ = rf.Close() }
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, out)

	// Validate logs its own warnings, so it runs once the handler is set.
	cfg.Validate()

	return cfg, cleanup, nil
}

func buildFactories(cfg *config.Config, mon *health.Monitor) []uninstaller.Factory {
	return []uninstaller.Factory{
		appstore.NewOculusFactory(appstore.OculusOptions{
			HelperDir:   cfg.ResolveHelperDir(),
			Enabled:     cfg.ScanOculus,
			DisplayName: cfg.OculusDisplayName,
			Timeout:     time.Duration(cfg.HelperTimeoutSeconds) * time.Second,
			Health:      mon,
		}),
	}
}

func runScan(ctx context.Context, w io.Writer) error {
	if err := checkFormat(outputFormat); err != nil {
		return err
	}

	cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	mon := health.NewMonitor()
	factories := buildFactories(cfg, mon)
	results, err := uninstaller.Collect(ctx, mon, factories...)
	if err != nil {
		log.Warn("scan finished with errors", logging.KeyError, err.Error())
	}

	if werr := writeResults(w, outputFormat, results); werr != nil {
		return werr
	}
	return err
}

// helperBacked is implemented by factories that shell out to a helper.
type helperBacked interface {
	HelperPath() string
	HelperAvailable() bool
}

func runHelpers(ctx context.Context, w io.Writer) error {
	cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	if info, err := host.InfoWithContext(ctx); err == nil {
		fmt.Fprintf(w, "Platform: %s %s (%s)\n\n", info.Platform, info.PlatformVersion, info.KernelArch)
	} else {
		log.Debug("host info unavailable", logging.KeyError, err.Error())
	}

	mon := health.NewMonitor()
	factories := buildFactories(cfg, mon)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tENABLED\tAVAILABLE\tHELPER")
	for _, f := range factories {
		hb, ok := f.(helperBacked)
		if !ok {
			fmt.Fprintf(tw, "%s\t%t\t-\t-\n", f.DisplayName(), f.IsEnabled())
			continue
		}
		fmt.Fprintf(tw, "%s\t%t\t%t\t%s\n", f.DisplayName(), f.IsEnabled(), hb.HelperAvailable(), hb.HelperPath())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !probeHelpers {
		return nil
	}

	if _, err := uninstaller.Collect(ctx, mon, factories...); err != nil {
		log.Warn("probe finished with errors", logging.KeyError, err.Error())
	}
	fmt.Fprintf(w, "\nHealth: %s\n", mon.Overall())
	return writeHealth(w, mon.All())
}
