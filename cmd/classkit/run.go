package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/classkit"
	"github.com/dshills/classkit/internal/autoload"
	"github.com/dshills/classkit/internal/script"
)

// pollInterval is how often a watching run checks for reloaded classes.
const pollInterval = 50 * time.Millisecond

type runOptions struct {
	*globalOptions

	dir   string
	watch bool
}

func newRunCmd(g *globalOptions) *cobra.Command {
	opts := &runOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script against the class engine",
		Long: `Runs a Lua script with the classkit module loaded.

With an autoload directory, classes requested through a namespace's get(name, cb)
are loaded from <dir>/<namespace>/<Class>.lua. With --watch, changed class
files are unloaded and the script is run again until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.run(ctx, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "autoload", "a", "", "Autoload class scripts from this directory")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Reload changed class scripts and rerun")
	return cmd
}

func (o *runOptions) run(ctx context.Context, path string) error {
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := o.cfg
	if o.dir != "" {
		cfg.Autoload.Dir = o.dir
	}
	if o.watch {
		cfg.Autoload.Watch = true
	}
	if cfg.Autoload.Watch && cfg.Autoload.Dir == "" {
		return errors.New("--watch requires an autoload directory")
	}

	e, err := classkit.NewEngine(classkit.WithLogger(logger))
	if err != nil {
		return err
	}
	rt, err := e.NewRuntime(script.WithStateOptions(
		script.WithExecutionTimeout(cfg.Script.Timeout),
		script.WithCallLimit(cfg.Script.CallLimit),
	))
	if err != nil {
		return err
	}
	defer rt.Close()

	var watcher *autoload.Watcher
	if cfg.Autoload.Dir != "" {
		loader, err := autoload.NewLoader(cfg.Autoload.Dir, rt, autoload.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := loader.Install(e.Namespaces(), cfg.Autoload.Namespaces); err != nil {
			return err
		}
		if cfg.Autoload.Watch {
			watcher, err = autoload.NewWatcher(loader, rt, autoload.WithWatcherLogger(logger))
			if err != nil {
				return fmt.Errorf("watching %s: %w", loader.Dir(), err)
			}
			defer watcher.Close()
		}
	}

	if err := o.execute(ctx, rt, path); err != nil {
		if watcher == nil {
			return err
		}
		logger.Error("script failed", zap.String("script", path), zap.Error(err))
	}
	if watcher == nil {
		rt.Sync()
		return nil
	}

	logger.Info("watching for class changes", zap.String("dir", cfg.Autoload.Dir))
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if rt.Pending() == 0 {
				continue
			}
			if n := rt.Sync(); n > 0 {
				logger.Info("classes reloaded, rerunning", zap.String("script", path))
				if err := o.execute(ctx, rt, path); err != nil {
					logger.Error("script failed", zap.String("script", path), zap.Error(err))
				}
			}
		}
	}
}

func (o *runOptions) execute(ctx context.Context, rt *script.Runtime, path string) error {
	if err := rt.DoFile(ctx, path); err != nil {
		return fmt.Errorf("running %s: %w", path, err)
	}
	return nil
}
