package main

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"resrepo/internal/cache"
	"resrepo/internal/config"
	"resrepo/internal/library"
	"resrepo/internal/logging"
	"resrepo/internal/pack"
	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfgFile  string
	logLevel string
	noColor  bool

	cfg *config.Config
	log *zap.Logger

	// saves tracks background cache writes; they finish before exit.
	saves errgroup.Group
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "resrepo",
		Short: "Android resource repository loader and snapshot cache",
		Long: `resrepo loads the resources of an Android library (a directory or an
.aar/.zip archive) into an indexed repository, keeps a binary snapshot of it
so later loads skip parsing, and inspects the result.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./resrepo.yaml when present)")
	flags.StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(newLoadCommand(a))
	rootCmd.AddCommand(newDumpCommand(a))
	rootCmd.AddCommand(newDiffCommand(a))
	rootCmd.AddCommand(newPackCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if cfg.Cache.CodeVersion == "" {
		cfg.Cache.CodeVersion = Version
	}
	if a.noColor {
		color.NoColor = true
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	err := a.saves.Wait()
	_ = a.log.Sync()
	return err
}

// sourceFlags select how a library is opened.
type sourceFlags struct {
	noCache  bool
	fresh    bool
	prebuilt string
	entry    string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&s.noCache, "no-cache", false, "parse sources without reading or writing the snapshot cache")
	f.BoolVar(&s.fresh, "fresh", false, "clear the library's snapshot cache before loading")
	f.StringVar(&s.prebuilt, "prebuilt", "", "prebuilt bundle (zip) to try before the snapshot cache")
	f.StringVar(&s.entry, "prebuilt-entry", pack.FullEntry, "snapshot entry inside the prebuilt bundle")
}

// open loads the library at root with the configured namespace and cache.
func (a *app) open(root string, src sourceFlags) (*repo.Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	name := a.cfg.Load.LibraryName
	if name == "" {
		name = filepath.Base(abs)
	}

	opts := []library.Option{library.WithLogger(a.log)}
	if src.prebuilt != "" {
		opts = append(opts, library.WithPrebuilt(src.prebuilt, src.entry))
	}

	var caching *library.CachingData
	if a.cfg.Cache.Enabled && !src.noCache {
		if src.fresh {
			if err := cache.Clear(cache.CacheDir(a.cfg.Cache.Dir, abs)); err != nil {
				return nil, err
			}
		}
		caching = a.caching(abs)
	}
	return library.CreateFromSource(abs, resource.NamespaceFromPackage(a.cfg.Load.Namespace), name, caching, opts...)
}

func (a *app) caching(abs string) *library.CachingData {
	return &library.CachingData{
		CacheFile:   cache.CacheFile(a.cfg.Cache.Dir, abs),
		CodeVersion: a.cfg.Cache.CodeVersion,
		Executor:    a.executor(),
	}
}

// executor runs cache writes inline, or on the errgroup when cache.async
// is set.
func (a *app) executor() cache.Executor {
	if !a.cfg.Cache.Async {
		return func(task func()) { task() }
	}
	return func(task func()) {
		a.saves.Go(func() error {
			task()
			return nil
		})
	}
}
