package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/classfile"
	"nanopatterns/internal/config"
	"nanopatterns/internal/nanopatterns/log"
	"nanopatterns/internal/scan"
)

// NewRootCmd builds the nanopatterns command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nanopatterns [paths...]",
		Short: "Classify JVM methods by nanopattern",
		Long: `Nanopatterns decodes JVM class files and reports, for every method,
which of 28 simple bytecode-level traits (nanopatterns) it exhibits.

Inputs may be class files, jars or directories. A bare class name
(pkg.Class) or method reference (pkg.Class:method[:descriptor]) is looked
up on the classpath.`,
		Example: `
# Report every method of a jar
nanopatterns app.jar

# Summarize a build directory
nanopatterns --summary build/classes

# One method from the classpath
nanopatterns -p lib/app.jar com.example.Shape:area:()D

# Browse interactively
nanopatterns -i app.jar
  `,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE:         runRoot,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: $NANOPATTERNS_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().StringP("classpath", "p", "", "Classpath used to resolve classes and abstract methods")
	rootCmd.PersistentFlags().Int("workers", 0, "Classes analyzed concurrently (0: one per CPU)")
	rootCmd.PersistentFlags().StringSlice("stdlib", nil, "Owner prefixes counted as standard library (default java/,javax/)")

	rootCmd.Flags().BoolP("json", "j", false, "Output results as JSON")
	rootCmd.Flags().BoolP("summary", "s", false, "Output a per-pattern summary")
	rootCmd.Flags().BoolP("interactive", "i", false, "Browse results in a TUI")
	rootCmd.Flags().String("class", "", "Only analyze this class (dotted or internal name)")
	rootCmd.Flags().String("method", "", "Only analyze methods named name or name:descriptor")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
	rootCmd.MarkFlagsMutuallyExclusive("json", "summary", "interactive")

	rootCmd.AddCommand(newListCmd(), newDisasmCmd(), newSchemaCmd())
	return rootCmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	stop, err := startProfiling(cmd)
	if err != nil {
		return err
	}
	defer stop()

	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	class, _ := cmd.Flags().GetString("class")
	method, _ := cmd.Flags().GetString("method")
	target, err := targetFromArgs(args, class, method)
	if err != nil {
		return err
	}
	if target.FromClasspath() && len(cfg.Classpath) == 0 {
		return errors.New("looking up a class needs a classpath (-p) when no path is given")
	}

	format := cfg.Format
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		format = config.FormatJSON
	}
	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		format = config.FormatSummary
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if interactive && !term.IsTerminal(os.Stdout.Fd()) {
		slog.Warn("stdout is not a terminal, printing the report instead")
		interactive = false
	}
	if interactive {
		return runTUI(cmd.Context(), cfg, target)
	}
	return runReport(cmd.Context(), cmd.OutOrStdout(), cfg, target, format)
}

// setup loads the configuration, applies flag overrides and installs the
// logger.
func setup(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("classpath") {
		cp, _ := flags.GetString("classpath")
		cfg.Classpath = classfile.SplitClasspath(cp)
	}
	if flags.Changed("stdlib") {
		cfg.StdlibPrefixes, _ = flags.GetStringSlice("stdlib")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Setup(cfg.Debug)
	slog.Debug("configuration loaded", "path", path, "workers", cfg.EffectiveWorkers(), "classpath", cfg.Classpath)
	return cfg, nil
}

// session wires the classpath, analyzer and runner for one command.
type session struct {
	classpath *classfile.Classpath
	analyzer  *analysis.Analyzer
	runner    *scan.Runner
}

func newSession(cfg *config.Config, opts ...scan.Option) (*session, error) {
	logger := slog.Default()
	cp, err := classfile.NewClasspath(cfg.Classpath,
		classfile.WithCacheSize(cfg.CacheSize),
		classfile.WithClasspathLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("classpath: %w", err)
	}
	analyzer := analysis.NewAnalyzer(cp,
		analysis.WithStdlibPrefixes(cfg.StdlibPrefixes...),
		analysis.WithLogger(logger),
	)
	opts = append([]scan.Option{
		scan.WithWorkers(cfg.EffectiveWorkers()),
		scan.WithLogger(logger),
	}, opts...)
	return &session{
		classpath: cp,
		analyzer:  analyzer,
		runner:    scan.NewRunner(analyzer, opts...),
	}, nil
}

// run analyzes target. A class given without paths is resolved on the
// classpath, where the first entry holding it wins.
func (s *session) run(ctx context.Context, target scan.Target) (*scan.Report, error) {
	if target.FromClasspath() {
		return s.runner.RunClass(ctx, s.classpath, target)
	}
	return s.runner.Run(ctx, target.Paths, target)
}

func (s *session) Close() error { return s.classpath.Close() }

func startProfiling(cmd *cobra.Command) (func(), error) {
	var stops []func()
	stop := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return stop, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return stop, fmt.Errorf("could not start CPU profile: %w", err)
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	memprofile, _ := cmd.Flags().GetString("memprofile")
	if memprofile != "" {
		stops = append(stops, func() {
			f, err := os.Create(memprofile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
				return
			}
			defer f.Close()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
			}
		})
	}
	return stop, nil
}

func Execute() {
	rootCmd := NewRootCmd()

	// Plain cobra when piped or asked for machine output, so fang does not
	// style the output.
	plain := !term.IsTerminal(os.Stdout.Fd())
	for _, arg := range os.Args[1:] {
		if arg == "--json" || arg == "-j" {
			plain = true
			break
		}
	}

	if plain {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
	} else {
		if err := fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		); err != nil {
			os.Exit(1)
		}
	}
	if err := log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log: %v\n", err)
	}
}
