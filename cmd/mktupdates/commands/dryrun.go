// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"code.vegaprotocol.io/marketupdates/broker"
	"code.vegaprotocol.io/marketupdates/config"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/metrics"
	"code.vegaprotocol.io/marketupdates/scenario"
	"code.vegaprotocol.io/marketupdates/subscribers"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/jessevdk/go-flags"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

var (
	purple = color.New(color.FgMagenta).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

type DryRunCmd struct {
	config.RootPathFlag

	Watch   bool `short:"w" long:"watch" description:"Run the scenario again every time the file changes"`
	NoColor bool `long:"no-color" description:"Print the results without colors"`

	Args struct {
		Scenario string `positional-arg-name:"scenario" required:"yes" description:"TOML scenario file"`
	} `positional-args:"yes"`

	ctx context.Context
}

var dryRunCmd DryRunCmd

func DryRun(ctx context.Context, parser *flags.Parser) error {
	dryRunCmd = DryRunCmd{
		RootPathFlag: config.NewRootPathFlag(),
		ctx:          ctx,
	}
	_, err := parser.AddCommand("dryrun", "Run a market update scenario", "Deploy the market updates contracts in memory and run a scenario against them", &dryRunCmd)
	return err
}

func (opts *DryRunCmd) Execute(_ []string) error {
	ctx := opts.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	color.NoColor = opts.NoColor || !isatty.IsTerminal(os.Stdout.Fd())

	cfg, fromFile, err := opts.loadConfig()
	if err != nil {
		return err
	}

	log := logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()
	if !fromFile {
		log.Info("no configuration found, using the defaults", logging.String("path", config.Path(opts.RootPath)))
	}

	if err := metrics.Start(ctx, log, cfg.Metrics); err != nil {
		return err
	}

	bus := broker.New(log, cfg.Broker)
	if cfg.Subscribers.EventLogger {
		bus.Subscribe(subscribers.NewEventLogger(ctx, log, cfg.Subscribers))
	}
	if cfg.Subscribers.Metrics {
		bus.Subscribe(subscribers.NewMetricsSub(ctx))
	}

	run := func() error {
		sc, err := scenario.Load(opts.Args.Scenario)
		if err != nil {
			return err
		}
		res, err := scenario.Run(ctx, log, cfg.Deploy, bus, sc)
		printResult(res)
		return err
	}

	if !opts.Watch {
		return run()
	}

	var cw *config.Watcher
	if fromFile {
		if cw, err = config.NewFromFile(ctx, log, opts.RootPath); err != nil {
			return err
		}
		cw.OnConfigUpdate(func(c config.Config) {
			cfg = &c
			bus.ReloadConf(c.Broker)
		})
	}

	if err := run(); err != nil {
		log.Error("scenario failed", logging.Error(err))
	}
	return opts.watch(ctx, log, func() {
		if cw != nil {
			cw.OnTimeUpdate(ctx, time.Now())
		}
		if err := run(); err != nil {
			log.Error("scenario failed", logging.Error(err))
		}
	})
}

func (opts *DryRunCmd) loadConfig() (*config.Config, bool, error) {
	if _, err := os.Stat(config.Path(opts.RootPath)); err != nil {
		if os.IsNotExist(err) {
			cfg := config.NewDefaultConfig()
			return &cfg, false, nil
		}
		return nil, false, err
	}
	cfg, err := config.Read(opts.RootPath)
	return cfg, true, err
}

// watch calls rerun every time the scenario file is written, until ctx is
// done. The directory is watched so files replaced by editors are caught.
func (opts *DryRunCmd) watch(ctx context.Context, log *logging.Logger, rerun func()) error {
	path, err := filepath.Abs(opts.Args.Scenario)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "couldn't watch %s", path)
	}

	log.Info("watching scenario", logging.String("path", path))
	for {
		select {
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				log.Info("scenario updated, running it again", logging.String("path", path))
				rerun()
			}
		case err := <-watcher.Errors:
			log.Error("scenario watcher error", logging.Error(err))
		case <-ctx.Done():
			return nil
		}
	}
}

func printResult(res *scenario.Result) {
	if res == nil {
		return
	}
	fmt.Printf("%v %s\n", purple("scenario:"), res.Name)
	for _, st := range res.Steps {
		outcome := green("ok")
		if st.Err != nil {
			outcome = red("error: " + st.Err.Error())
		}
		fmt.Printf("  %3d  %-16s  proposal %-3d  %s  %s\n",
			st.Index, st.Action, st.Proposal, st.Time.UTC().Format("2006-01-02T15:04:05Z"), outcome)
	}
}
