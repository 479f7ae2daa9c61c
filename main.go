package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"library-catalog/internal/config"
	"library-catalog/internal/logger"
	"library-catalog/library"
)

// noStore marks commands that run without opening the configured database.
const noStore = "no-store"

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgPath string
	cfg     *config.Config
	log     *slog.Logger
	mgr     *library.LibraryManager
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "librarian",
		Short:             "Manage a library catalog, its members and circulation",
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", config.DefaultPath, "path to the YAML configuration file")
	pf.String("db", "", "SQLite database path")
	pf.Bool("memory", false, "keep the library in memory only")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.Bool("strict", false, "reject duplicate ids, double issues and bad returns")
	pf.Int("fine-rate", 0, "fine per day late")
	pf.String("return-mode", "", "which issued entry a return removes (top, by-id)")

	root.AddCommand(
		newAddCmd(a),
		newRemoveCmd(a),
		newIssueCmd(a),
		newReturnCmd(a),
		newListCmd(a),
		newIssuedCmd(a),
		newSearchCmd(a),
		newReportCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
		newDemoCmd(a),
	)
	return root
}

// open loads configuration, applies flag overrides and opens the library.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	cfg, err := config.Load(a.cfgPath, flags.Changed("config"))
	if err != nil {
		return err
	}

	if flags.Changed("db") {
		cfg.Database.Path, _ = flags.GetString("db")
	}
	if memory, _ := flags.GetBool("memory"); memory {
		cfg.Database.Path = ""
	}
	if flags.Changed("log-level") {
		cfg.Logger.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logger.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("strict") {
		cfg.Circulation.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("fine-rate") {
		cfg.Circulation.FineRatePerDay, _ = flags.GetInt("fine-rate")
	}
	if flags.Changed("return-mode") {
		cfg.Circulation.ReturnMode, _ = flags.GetString("return-mode")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: cfg.Logger.Format,
		Level:  logger.ParseLevel(cfg.Logger.Level),
	})

	if cmd.Annotations[noStore] != "" {
		return nil
	}

	policy := cfg.Circulation.Policy()
	mgr, err := library.NewLibraryManager(library.ManagerConfig{
		DBPath: cfg.Database.Path,
		Policy: &policy,
		Logger: a.log,
	})
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	a.mgr = mgr
	return nil
}

func (a *app) close() error {
	if a.mgr == nil {
		return nil
	}
	err := a.mgr.Close()
	a.mgr = nil
	return err
}
