package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"pkt.systems/objlookup"
	"pkt.systems/objlookup/internal/clock"
	"pkt.systems/objlookup/internal/hostinfo"
	"pkt.systems/objlookup/internal/objns"
	"pkt.systems/objlookup/internal/pathutil"
	"pkt.systems/objlookup/internal/scenario"
	"pkt.systems/objlookup/internal/svcfields"
	"pkt.systems/objlookup/internal/version"
)

// errUsage marks failures whose explanation has already been printed.
var errUsage = errors.New("usage")

func submain(ctx context.Context) int {
	baseLogger := pslog.LoggerFromEnv(context.Background(),
		pslog.WithEnvPrefix("OBJLOOKUP_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "objlookup")
	ctx = withSignalCancel(ctx)
	return run(ctx, baseLogger, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, baseLogger pslog.Logger, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(baseLogger)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "objlookup: %s\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	if baseLogger == nil {
		baseLogger = pslog.NoopLogger()
	}
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "objlookup [flags] <test> [args...]",
		Short:         "objlookup times name lookups in the Windows object manager namespace",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		Example: `
  # Simple open, 1000 iterations (the default)
  objlookup 1

  # Recursive symlinks: default iterations, 100 nested directories, 32 links
  objlookup 4 _ 100 32

  # Name collisions against the in-process emulation
  objlookup --backend mem 5 100 2000

  # List the tests and their parameters
  objlookup list
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				_ = scenario.WriteHelp(out)
				return errUsage
			}
			id, convErr := strconv.Atoi(args[0])
			def, ok := scenario.Lookup(id)
			if convErr != nil || !ok {
				fmt.Fprintf(out, "Unknown test: %s.\n", args[0])
				_ = scenario.WriteHelp(out)
				return errUsage
			}
			cmd.SilenceUsage = true
			bound, err := def.Bind(args[1:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := withLogLevel(v, baseLogger).With(svcfields.RunKey, xid.New().String())
			cliLogger := svcfields.WithSubsystem(logger, "cli.root")

			configFile, err := loadConfigFile(v)
			if err != nil {
				return err
			}
			if configFile != "" {
				cliLogger.Info("loaded config file", "path", configFile)
			}
			cfg := bindConfig(v)
			if err := cfg.Validate(); err != nil {
				return err
			}
			cliLogger.Debug("objlookup.start",
				"version", version.Current(),
				"pid", os.Getpid(),
				"backend", cfg.Backend,
				"base_dir", cfg.BaseDirectory,
			)
			logHost(ctx, cliLogger)

			ns, err := objlookup.OpenNamespace(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := ns.Close(); err != nil {
					cliLogger.Warn("namespace.close_failed", "error", err)
				}
			}()

			err = def.Execute(ctx, scenario.Env{
				Namespace: ns,
				Clock:     clock.Real{},
				Out:       out,
				Logger:    logger,
				BaseDir:   cfg.BaseDirectory,
			}, bound)
			if status, ok := objns.StatusOf(err); ok {
				// A namespace failure ends the run but is reported on stdout
				// with a zero exit status.
				cliLogger.Error("scenario.namespace_failure", "error", err)
				fmt.Fprintf(out, "Error in program: %s\n", status.Hex())
				return nil
			}
			return err
		},
	}

	persistentFlags := cmd.PersistentFlags()
	persistentFlags.StringP("config", "c", "", "path to YAML config file (defaults to $HOME/.objlookup/"+objlookup.DefaultConfigFileName+")")
	persistentFlags.String("log-level", objlookup.DefaultLogLevel, "log level (trace, debug, info, warn, error)")

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.String("backend", objlookup.DefaultBackend(), "namespace backend (nt, mem)")
	flags.String("base-dir", objlookup.DefaultBaseDirectory, "object directory the tests build under")
	flags.Int("mem-buckets", objlookup.DefaultMemBuckets, "hash chains per directory in the mem backend")
	flags.Int("mem-max-reparse", objlookup.DefaultMemMaxReparse, "symbolic link substitutions allowed per lookup in the mem backend")

	bindFlag := func(name string) {
		var flag *pflag.Flag
		for _, set := range []*pflag.FlagSet{flags, persistentFlags} {
			if flag = set.Lookup(name); flag != nil {
				break
			}
		}
		if flag == nil {
			panic(fmt.Sprintf("flag %q not found", name))
		}
		if err := v.BindPFlag(name, flag); err != nil {
			panic(err)
		}
	}

	v.SetEnvPrefix("OBJLOOKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"config", "log-level", "backend", "base-dir", "mem-buckets", "mem-max-reparse"} {
		bindFlag(name)
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newHostCommand(v, baseLogger))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func bindConfig(v *viper.Viper) objlookup.Config {
	return objlookup.Config{
		Backend:       v.GetString("backend"),
		BaseDirectory: v.GetString("base-dir"),
		MemBuckets:    v.GetInt("mem-buckets"),
		MemMaxReparse: v.GetInt("mem-max-reparse"),
	}
}

func withLogLevel(v *viper.Viper, logger pslog.Logger) pslog.Logger {
	logLevel := strings.TrimSpace(v.GetString("log-level"))
	if logLevel == "" {
		logLevel = objlookup.DefaultLogLevel
	}
	if level, ok := pslog.ParseLevel(logLevel); ok {
		return logger.LogLevel(level)
	}
	return logger
}

func logHost(ctx context.Context, logger pslog.Logger) {
	snap, err := hostinfo.Collect(ctx)
	if err != nil {
		logger.Debug("host.snapshot.partial", "error", err)
	}
	logger.Debug("host.snapshot", snap.LogFields()...)
}

func loadConfigFile(v *viper.Viper) (string, error) {
	cfgPath := strings.TrimSpace(v.GetString("config"))
	explicit := cfgPath != ""

	if cfgPath == "" {
		if dir, err := objlookup.DefaultConfigDir(); err == nil {
			candidate := filepath.Join(dir, objlookup.DefaultConfigFileName)
			if _, err := os.Stat(candidate); err == nil {
				cfgPath = candidate
			}
		}
	}

	if cfgPath == "" {
		return "", nil
	}

	expanded, err := pathutil.Expand(cfgPath)
	if err != nil {
		return "", fmt.Errorf("expand config path %q: %w", cfgPath, err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("config file %q: %w", expanded, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config file %q is a directory", expanded)
	}

	v.SetConfigFile(expanded)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config file %q: %w", expanded, err)
	}
	return expanded, nil
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}
