package cli

import (
	"context"
	"io"

	"github.com/rileyhilliard/patchctl/internal/azcli"
	"github.com/rileyhilliard/patchctl/internal/config"
	"github.com/rileyhilliard/patchctl/internal/dispatch"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/metrics"
	"github.com/rileyhilliard/patchctl/internal/monitor"
	"github.com/rileyhilliard/patchctl/internal/remediate"
)

// app holds the collaborators built from the effective config.
type app struct {
	cfg     *config.Config
	cfgPath string
	log     logger.Logger

	runner     *azcli.Runner
	account    *azcli.AccountLister
	adapter    *inventory.Adapter
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Metrics

	logCloser     io.Closer
	cancelMetrics context.CancelFunc
}

// loadApp loads and validates config, initializes logging and wires the az
// backends. Config problems are returned as CONFIG errors.
func loadApp(ctx context.Context) (*app, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	closer, err := logger.Init(logger.Config{File: cfg.Log.File, Level: level})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		cfgPath:   path,
		log:       logger.NewEnvLogger("[cli]"),
		logCloser: closer,
		metrics:   metrics.New(),
	}

	a.runner = azcli.NewRunner(cfg.Dispatch.Grace, logger.NewEnvLogger("[azcli]"))
	a.account = azcli.NewAccountLister(a.runner)
	a.adapter = inventory.NewAdapter(
		azcli.NewGraphExecutor(a.runner),
		a.account,
		inventory.Options{
			Subscriptions:    cfg.Subscriptions,
			QueryTimeout:     cfg.Refresh.QueryTimeout,
			MaxParallel:      cfg.Refresh.MaxParallelQueries,
			HistoryWindow:    cfg.History.Window,
			HistoryFetch:     cfg.History.Fetch,
			UnassessedOSType: cfg.Unassessed.OSType,
		},
		logger.NewEnvLogger("[inventory]"),
		a.metrics,
	)
	a.dispatcher = dispatch.New(
		azcli.NewVMCommander(a.runner),
		dispatch.Options{
			Window:  cfg.Dispatch.Window,
			Settle:  cfg.Dispatch.Settle,
			Stagger: cfg.Dispatch.Stagger,
		},
		logger.NewEnvLogger("[dispatch]"),
		a.metrics,
	)

	a.startMetrics(ctx)
	a.log.Info("config loaded from %s", describeConfigPath(path))
	return a, nil
}

// startMetrics serves /metrics and /healthz when metrics.listen is set.
func (a *app) startMetrics(ctx context.Context) {
	addr := a.cfg.Metrics.Listen
	if addr == "" {
		return
	}
	mctx, cancel := context.WithCancel(ctx)
	a.cancelMetrics = cancel
	go func() {
		if err := a.metrics.Serve(mctx, addr); err != nil {
			a.log.Error("metrics listener on %s stopped: %v", addr, err)
		}
	}()
	a.log.Info("metrics listening on %s", addr)
}

// requireLogin fails with an AUTH error when az has no signed-in account.
func (a *app) requireLogin(ctx context.Context) (*azcli.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Refresh.QueryTimeout)
	defer cancel()

	acct, err := a.account.Show(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Info("signed in as %s, subscription %s", acct.User.Name, acct.Name)
	return acct, nil
}

func (a *app) installParams() remediate.InstallParams {
	return remediate.InstallParams{
		Classifications: a.cfg.Install.Classifications,
		MaxDuration:     a.cfg.Install.MaxDuration,
		RebootSetting:   a.cfg.Install.RebootSetting,
		OSFamily:        a.cfg.Install.OSFamily,
	}
}

func (a *app) monitorDeps() monitor.Deps {
	return monitor.Deps{
		Gatherer:   a.adapter,
		Dispatcher: a.dispatcher,
		Log:        logger.NewEnvLogger("[monitor]"),
	}
}

func (a *app) monitorOptions() monitor.Options {
	return monitor.Options{
		Interval:       a.cfg.Refresh.Interval,
		HistoryWindow:  a.cfg.History.Window,
		HistoryDisplay: a.cfg.History.Display,
		TargetSample:   monitor.DefaultTargetSample,
		Install:        a.installParams(),
	}
}

// Close stops the metrics listener and flushes the log file.
func (a *app) Close() {
	if a.cancelMetrics != nil {
		a.cancelMetrics()
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func describeConfigPath(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
