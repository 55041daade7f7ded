// Package main implements the yulimport CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MadAppGang/yulimport/pkg/bench"
	"github.com/MadAppGang/yulimport/pkg/config"
	"github.com/MadAppGang/yulimport/pkg/diagnostics"
	"github.com/MadAppGang/yulimport/pkg/format"
	"github.com/MadAppGang/yulimport/pkg/hiddenchar"
	"github.com/MadAppGang/yulimport/pkg/ui"
	"github.com/MadAppGang/yulimport/pkg/walk"
	"github.com/MadAppGang/yulimport/pkg/yulimport"
)

var version = "0.1.0-alpha"

func main() {
	rootCmd := &cobra.Command{
		Use:          "yulimport",
		Short:        "yulimport - inline Yul import preprocessor",
		Version:      version,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			ui.Help(version)
		},
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		ui.Help(version)
	})
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Help(version)
		},
	})

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(scanHiddenCmd())
	rootCmd.AddCommand(benchCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	var (
		noFormat     bool
		formatter    string
		rootOverride string
		configPath   string
		cacheDir     string
		watchMode    bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "build <directory>",
		Short: "Preprocess a directory of .presl files",
		Long: `Build walks directory for .presl files, expands every // import ...
from ... directive inside their assembly {} blocks, and writes .post.sol
output alongside each input file.

Example:
  yulimport build ./contracts
  yulimport build --no-format ./contracts
  yulimport build --watch ./contracts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(args[0], buildOverrides{
				noFormat:     noFormat,
				formatter:    formatter,
				rootOverride: rootOverride,
				configPath:   configPath,
				cacheDir:     cacheDir,
				watch:        watchMode,
				verbose:      verbose,
			})
		},
	}

	cmd.Flags().BoolVar(&noFormat, "no-format", false, "Skip running the formatter hook on output")
	cmd.Flags().StringVar(&formatter, "formatter", "", "Override the formatter binary (default: forge)")
	cmd.Flags().StringVar(&rootOverride, "root", "", "Override the root absolute imports are resolved against")
	cmd.Flags().StringVar(&configPath, "config", "", "Accepted but not read; config comes from ./yulimport.toml and ~/.yulimport/config.toml")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Enable an on-disk resolver cache at this directory")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Watch the directory and re-run on .presl changes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

type buildOverrides struct {
	noFormat     bool
	formatter    string
	rootOverride string
	configPath   string
	cacheDir     string
	watch        bool
	verbose      bool
}

func runBuild(dir string, o buildOverrides) error {
	logger := newLogger(o.verbose)
	defer logger.Sync()

	cfg, err := loadConfig(o)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	reporter := ui.NewReporter()
	reporter.Header(version)

	if err := runOnce(dir, cfg, logger, reporter); err != nil {
		return err
	}

	if !o.watch {
		return nil
	}

	reporter.Info("watching for changes, press Ctrl+C to stop")
	return watchAndRebuild(dir, cfg, logger, reporter)
}

func runOnce(dir string, cfg *config.Config, logger *zap.SugaredLogger, reporter *ui.Reporter) error {
	var diskCache *yulimport.DiskCache
	if cfg.Cache.Dir != "" {
		diskCache = yulimport.OpenDiskCache(cfg.Cache.Dir)
	}

	newResolver := func() *yulimport.Resolver {
		opts := []yulimport.Option{yulimport.WithLogger(logger)}
		if diskCache != nil {
			opts = append(opts, yulimport.WithDiskCache(diskCache))
		}
		return yulimport.New(resolverRoot(cfg, dir), opts...)
	}

	w := walk.New(dir, cfg, newResolver)

	results, walkErr := w.Run(context.Background())
	reporter.Plan(len(results))

	for _, r := range results {
		if r.Err != nil {
			reporter.FileResult(r, renderErr(r.Err))
			continue
		}
		reporter.FileResult(r, "")
		if !r.Skipped && cfg.Format.Enabled {
			if warn := format.Run(cfg, r.OutputPath, logger); warn != nil {
				reporter.Warning(*warn)
			}
		}
	}

	if diskCache != nil {
		if err := diskCache.Flush(); err != nil {
			logger.Debugw("failed to flush disk cache", "error", err)
		}
	}

	reporter.Summary(results, walkErr)
	return walkErr
}

func watchAndRebuild(dir string, cfg *config.Config, logger *zap.SugaredLogger, reporter *ui.Reporter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for event := range watcher.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			continue
		}
		if !hasSuffix(event.Name, cfg.Walk.InputSuffix) {
			continue
		}
		reporter.Info(fmt.Sprintf("change detected: %s", event.Name))
		if err := runOnce(dir, cfg, logger, reporter); err != nil {
			reporter.Error(err.Error())
		}
	}
	return nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func resolverRoot(cfg *config.Config, dir string) string {
	if cfg.Root.ConfiguredRoot != "" {
		return cfg.Root.ConfiguredRoot
	}
	return dir
}

func loadConfig(o buildOverrides) (*config.Config, error) {
	overrides := &config.Config{
		Root:   config.RootConfig{ConfiguredRoot: o.rootOverride},
		Format: config.FormatConfig{Binary: o.formatter},
		Cache:  config.CacheConfig{Dir: o.cacheDir},
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, err
	}
	if o.noFormat {
		cfg.Format.Enabled = false
	}
	return cfg, nil
}

func renderErr(err error) string {
	if yerr, ok := err.(*yulimport.Error); ok {
		return diagnostics.Render(yerr, nil).Format()
	}
	return err.Error()
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func scanHiddenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan-hidden <path>",
		Short: "Scan files for hidden/control characters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			findings, err := hiddenchar.ScanTree(args[0])
			if err != nil {
				return err
			}
			fmt.Print(ui.HiddenCharReport(findings))
			if len(findings) > 0 {
				return fmt.Errorf("%d hidden character(s) found", len(findings))
			}
			return nil
		},
	}
	return cmd
}

func benchCmd() *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "bench <directory>",
		Short: "Benchmark the resolver over a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			report, err := bench.Run(dir, iterations, func() *yulimport.Resolver {
				return yulimport.New(dir)
			})
			if err != nil {
				return err
			}
			fmt.Print(ui.BenchTable(report))
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 5, "Number of timing iterations per file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			ui.VersionInfo(version)
		},
	}
}
