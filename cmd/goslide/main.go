package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"goslide/internal/config"
	"goslide/internal/scan"
	"goslide/internal/sequence"
	"goslide/internal/session"
	"goslide/internal/slideshow"
	"goslide/internal/ui"
	"goslide/internal/watch"
)

// RunFunc starts a slideshow session. Injected into NewRootCmd so
// tests can capture the merged configuration instead of opening a
// window.
type RunFunc func(dir string, cfg *config.Config, logger *logrus.Logger) error

// NewRootCmd creates the goslide root command.
func NewRootCmd(runFunc RunFunc) *cobra.Command {
	var (
		configPath string
		interval   float64
		randomOrd  bool
		sequential bool
		loop       int
		once       bool
		update     bool
		insert     string
		extensions []string
		ignore     []string
		windowed   bool
		hold       bool
		resume     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "goslide [directory]",
		Short: "Fullscreen image slideshow viewer",
		Long: `GoSlide walks a directory for images and shows them fullscreen on a
timed interval. Arrow keys navigate, Home/End jump, Space pauses,
Q or Escape quits. With --update the slideshow picks up images added
to the directory while it is running.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}

			var cfg *config.Config
			var err error
			if configPath != "" {
				cfg, err = config.LoadFile(configPath)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}

			// Flags override file values only when actually given.
			flagSet := cmd.Flags()
			if flagSet.Changed("time") {
				cfg.Interval = interval
			}
			if flagSet.Changed("random") {
				cfg.Random = randomOrd
			}
			if flagSet.Changed("sequential") {
				cfg.Random = !sequential
			}
			if flagSet.Changed("loop") {
				cfg.Loop = loop
			}
			if flagSet.Changed("once") {
				cfg.Loop = 0
			}
			if flagSet.Changed("update") {
				cfg.Watch = update
			}
			if flagSet.Changed("insert") {
				cfg.Insert = insert
			}
			if flagSet.Changed("extensions") {
				cfg.Extensions = extensions
			}
			if flagSet.Changed("ignore") {
				cfg.Ignore = ignore
			}
			if flagSet.Changed("windowed") {
				cfg.Windowed = windowed
			}
			if flagSet.Changed("hold") {
				cfg.HoldOnEnd = hold
			}
			if flagSet.Changed("resume") {
				cfg.Resume = resume
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runFunc(dir, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().Float64VarP(&interval, "time", "t", 6.0, "seconds each image stays on screen")
	cmd.Flags().BoolVarP(&randomOrd, "random", "r", false, "randomly order the images")
	cmd.Flags().BoolVarP(&sequential, "sequential", "s", false, "order the images by name")
	cmd.Flags().IntVarP(&loop, "loop", "n", sequence.LoopForever, "extra loops through the images (-1 = forever, 0 = once through)")
	cmd.Flags().BoolVarP(&once, "once", "O", false, "play through the images once (same as --loop 0)")
	cmd.Flags().BoolVarP(&update, "update", "u", false, "pick up images added to the directory while running")
	cmd.Flags().StringVar(&insert, "insert", config.InsertShowNext, "where new images land: show-next or append")
	cmd.Flags().StringSliceVar(&extensions, "extensions", nil, "allowed file extensions")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "glob patterns to exclude")
	cmd.Flags().BoolVar(&windowed, "windowed", false, "run in a window instead of fullscreen")
	cmd.Flags().BoolVar(&hold, "hold", false, "keep the last image up when the loop count is spent")
	cmd.Flags().BoolVar(&resume, "resume", false, "restart from the last shown image")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.MarkFlagsMutuallyExclusive("random", "sequential")
	cmd.MarkFlagsMutuallyExclusive("loop", "once")

	return cmd
}

// run builds the catalog, cursor, watcher and window, then drives the
// controller until the session ends.
func run(dir string, cfg *config.Config, logger *logrus.Logger) error {
	scanOpts := scan.Options{
		Extensions: cfg.Extensions,
		Ignore:     cfg.Ignore,
		Logger:     logger,
	}
	items, err := scan.Scan(dir, scanOpts)
	if err != nil {
		return err
	}

	cursor, err := sequence.New(items.Paths(), cfg.Mode(), cfg.Loop, cfg.Policy())
	if err != nil {
		return err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	var onRender func(string)
	if cfg.Resume {
		store, err := session.Open("", logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if last, ok, err := store.Last(root); err != nil {
			logger.WithError(err).Warn("reading saved session")
		} else if ok && cursor.Seek(last) {
			logger.WithField("path", last).Info("resuming previous session")
		}
		onRender = func(path string) {
			if err := store.Save(root, path); err != nil {
				logger.WithError(err).Warn("saving session")
			}
		}
	}

	var events <-chan watch.Event
	if cfg.Watch {
		accept, err := scan.NewFilter(scanOpts)
		if err != nil {
			return err
		}
		watcher, err := watch.New(root, accept, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
		events = watcher.Events()
	}

	commands := make(chan slideshow.Command, 8)
	viewer := ui.New(commands, cfg.Windowed, logger)
	ctrl := slideshow.New(cursor, viewer, events, slideshow.Options{
		Interval:  cfg.IntervalDuration(),
		HoldOnEnd: cfg.HoldOnEnd,
		OnRender:  onRender,
		Commands:  commands,
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		// Run only returns once the session is over; under --hold it
		// keeps serving manual navigation until quit.
		runErr <- ctrl.Run(ctx)
		viewer.Close()
	}()

	viewer.Run()
	cancel()

	// Run always returns once the context is cancelled; waiting here
	// keeps the deferred watcher and session teardown from racing the
	// controller's last dispatch.
	return <-runErr
}

func main() {
	if err := NewRootCmd(run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
