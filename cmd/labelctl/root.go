package main

import (
	"github.com/labelops/engine/internal/application/ledger"
	domaincatalog "github.com/labelops/engine/internal/domain/catalog"
	"github.com/labelops/engine/internal/domain/zone"
	"github.com/labelops/engine/internal/infrastructure/catalog"
	"github.com/labelops/engine/internal/infrastructure/config"
	"github.com/labelops/engine/internal/infrastructure/logger"
	"github.com/labelops/engine/internal/infrastructure/persistence"
	"github.com/labelops/engine/internal/infrastructure/zonecfg"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the wired engine handles shared by every subcommand. It is
// built once in the root command's PersistentPreRunE and torn down after the
// subcommand returns.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *persistence.Database
	watcher *zonecfg.Watcher

	ledger *ledger.LedgerService
	stock  *ledger.StockService
	grid   *ledger.GridService
	serial *ledger.SerialService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := logger.ConfigForEnvironment(cfg.App.Env)
	if cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log}

	var zones zone.Provider
	if cfg.Zones.Watch {
		watcher, err := zonecfg.NewWatcher(cfg.Zones.Path, log)
		if err != nil {
			return nil, err
		}
		a.watcher = watcher
		zones = watcher
	} else {
		layout, err := zonecfg.Load(cfg.Zones.Path)
		if err != nil {
			return nil, err
		}
		zones = zone.NewStaticProvider(layout)
	}

	var resolver domaincatalog.Resolver
	if cfg.Catalog.Path != "" {
		r, err := catalog.LoadCSV(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		resolver = r
	}

	db, err := persistence.NewDatabase(persistence.StoreConfig{
		Path:        cfg.Ledger.Path,
		BusyTimeout: cfg.Ledger.BusyTimeout,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db

	scope := persistence.NewGormTransactionScope(db.DB)
	records := persistence.NewGormRecordRepository(db.DB)
	outbound := persistence.NewGormOutboundRepository(db.DB)
	serials := persistence.NewGormSerialRepository(db.DB)

	a.ledger = ledger.NewLedgerService(scope, records, zones, resolver, log)
	a.stock = ledger.NewStockService(scope, records, outbound, log)
	a.grid = ledger.NewGridService(records, zones)
	a.serial = ledger.NewSerialService(scope, serials, log)
	return a, nil
}

// Close releases everything newApp opened. Safe on a partially built app.
func (a *app) Close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && a.logger != nil {
			a.logger.Error("error closing ledger store", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "labelctl",
		Short:         "Warehouse label ledger and location grid",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		built, err := newApp()
		if err != nil {
			return err
		}
		*a = *built
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a.Close()
	}

	root.AddCommand(
		issueCommand(a),
		showCommand(a),
		listCommand(a),
		deleteCommand(a),
		serialCommand(a),
		stockCommand(a),
		outboundCommand(a),
		gridCommand(a),
		exportCommand(a),
	)
	return root
}
