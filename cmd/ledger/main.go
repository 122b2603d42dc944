// Command ledger maintains the league ledger file.
//
// Usage:
//
//	ledger game add --file fantasy.json --game new_game.json --league L001 --date 2025-09-07 --week 1
//	ledger game remove --file fantasy.json --id L001S2025W1G2 --yes
//	ledger tx add --file fantasy.json --league L001 --year 2025 --batch new_tx.json
//	ledger tx remove --file fantasy.json --ids L001S2025T00003-L001S2025T00007
//	ledger backfill --file fantasy.json --league L001 --year 2025
//	ledger verify --file fantasy.json --verbose
//	ledger migrate game-ids --file fantasy.json --dry-run
//	ledger export --file fantasy.json --league L001 --season L001S2025 --out ./out
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/league-ledger/internal/config"
	"github.com/albapepper/league-ledger/internal/export"
	"github.com/albapepper/league-ledger/internal/ingest"
	"github.com/albapepper/league-ledger/internal/migrate"
	"github.com/albapepper/league-ledger/internal/store"
	"github.com/albapepper/league-ledger/internal/verify"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	root := &cobra.Command{
		Use:           "ledger",
		Short:         "League ledger maintenance CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(gameCmd(cfg))
	root.AddCommand(txCmd(cfg))
	root.AddCommand(backfillCmd(cfg))
	root.AddCommand(verifyCmd(cfg))
	root.AddCommand(migrateCmd(cfg))
	root.AddCommand(exportCmd(cfg))

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// game command
// --------------------------------------------------------------------------

func gameCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Add or remove games",
	}
	cmd.AddCommand(gameAddCmd(cfg))
	cmd.AddCommand(gameRemoveCmd(cfg))
	return cmd
}

func gameAddCmd(cfg *config.Config) *cobra.Command {
	var file, gameFile, league, date string
	var week int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Ingest a new game box score",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(gameFile)
			if err != nil {
				return fmt.Errorf("read game file: %w", err)
			}
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			summary, err := ingest.AddGame(doc, raw, league, date, week, logger)
			if err != nil {
				return err
			}
			if err := store.Save(file, doc); err != nil {
				return err
			}
			logger.Info("game added",
				"game_id", summary.GameID, "week", summary.Week, "year", summary.Year,
				"matchup", summary.TeamA+" vs "+summary.TeamB, "file", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().StringVar(&gameFile, "game", "", "New game JSON file")
	cmd.Flags().StringVar(&league, "league", "", "League ID, e.g. L001")
	cmd.Flags().StringVar(&date, "date", "", "Week date, YYYY-MM-DD")
	cmd.Flags().IntVar(&week, "week", 0, "Week number")
	cmd.MarkFlagRequired("game")
	cmd.MarkFlagRequired("league")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("week")
	return cmd
}

func gameRemoveCmd(cfg *config.Config) *cobra.Command {
	var file, id string
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a game by identifier and reindex its week",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			plan, err := ingest.PlanRemoveGame(doc, id)
			if err != nil {
				return err
			}
			fmt.Printf("Removing %s (week %d): %s vs %s\n", plan.GameID, plan.Week, plan.TeamA, plan.TeamB)
			if len(plan.Reindex) > 0 {
				fmt.Println("Reindex plan for following games:")
				for _, ch := range plan.Reindex {
					fmt.Printf("  %s -> %s\n", ch.Old, ch.New)
				}
			} else {
				fmt.Println("No subsequent games to reindex.")
			}
			if !yes && !cfg.AssumeYes && !confirm("Type 'y' to confirm removal and reindexing: ") {
				fmt.Println("Removal canceled. No changes written.")
				return nil
			}
			plan.Apply()
			if err := store.Save(file, doc); err != nil {
				return err
			}
			logger.Info("game removed", "game_id", plan.GameID, "week", plan.Week, "file", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().StringVar(&id, "id", "", "Game identifier, e.g. L001S2025W3G2")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation")
	cmd.MarkFlagRequired("id")
	return cmd
}

// --------------------------------------------------------------------------
// tx command
// --------------------------------------------------------------------------

func txCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Add or remove roster transactions",
	}
	cmd.AddCommand(txAddCmd(cfg))
	cmd.AddCommand(txRemoveCmd(cfg))
	return cmd
}

func txAddCmd(cfg *config.Config) *cobra.Command {
	var file, league, batchFile string
	var year int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Ingest a batch of roster transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(batchFile)
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			summary, err := ingest.AddTransactions(doc, raw, league, year, logger)
			if err != nil {
				return err
			}
			if err := store.Save(file, doc); err != nil {
				return err
			}
			logger.Info("transactions added",
				"added", summary.Added,
				"skipped_duplicates", summary.SkippedDuplicates,
				"skipped_invalid", summary.SkippedInvalid,
				"league", league, "year", year, "file", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().StringVar(&league, "league", "", "League ID, e.g. L001")
	cmd.Flags().IntVar(&year, "year", 0, "Season year, e.g. 2025")
	cmd.Flags().StringVar(&batchFile, "batch", "", "Transaction batch JSON file")
	cmd.MarkFlagRequired("league")
	cmd.MarkFlagRequired("year")
	cmd.MarkFlagRequired("batch")
	return cmd
}

func txRemoveCmd(cfg *config.Config) *cobra.Command {
	var file, ids string
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove transactions by ID, list, or range",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			expanded, err := ingest.ExpandSelector(ids)
			if err != nil {
				return err
			}
			fmt.Printf("Removing %d transaction(s): %s\n", len(expanded), strings.Join(expanded, ", "))
			if !yes && !cfg.AssumeYes && !confirm("Type 'y' to confirm removal and reindexing: ") {
				fmt.Println("Removal canceled. No changes written.")
				return nil
			}
			count, err := ingest.RemoveTransactions(doc, ids)
			if err != nil {
				return err
			}
			if err := store.Save(file, doc); err != nil {
				return err
			}
			logger.Info("transactions removed", "count", count, "file", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().StringVar(&ids, "ids", "", "Transaction ID, comma list, or range (A-B)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation")
	cmd.MarkFlagRequired("ids")
	return cmd
}

// --------------------------------------------------------------------------
// backfill command
// --------------------------------------------------------------------------

func backfillCmd(cfg *config.Config) *cobra.Command {
	var file, league string
	var year int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Backfill missing team_id cross-references on transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			res, err := ingest.BackfillTeamIDs(doc, league, year, logger)
			if err != nil {
				return err
			}
			if err := store.Save(file, doc); err != nil {
				return err
			}
			logger.Info("backfill complete", "updated", res.Updated, "skipped", res.Skipped, "file", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().StringVar(&league, "league", "", "League ID, e.g. L001")
	cmd.Flags().IntVar(&year, "year", 0, "Season year, e.g. 2025")
	cmd.MarkFlagRequired("league")
	cmd.MarkFlagRequired("year")
	return cmd
}

// --------------------------------------------------------------------------
// verify command
// --------------------------------------------------------------------------

func verifyCmd(cfg *config.Config) *cobra.Command {
	var file string
	var strict, verbose bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Audit every game in the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			tol := verify.Legacy
			if strict || cfg.Strict {
				tol = verify.Strict
			}
			issues := verify.Ledger(doc, tol)
			if len(issues) == 0 {
				logger.Info("verification passed, all checks clean", "file", file)
				return nil
			}
			for _, issue := range issues {
				fmt.Println(" -", issue.Msg)
			}
			if verbose {
				logger.Info("verification summary", "issues", len(issues), "tolerance", float64(tol))
			}
			return fmt.Errorf("verification failed with %d issue(s)", len(issues))
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().BoolVar(&strict, "strict", false, "Use the strict ingest tolerance")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print a summary line as well")
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "One-off corrective passes over the ledger",
	}
	cmd.AddCommand(migrateGameIDsCmd(cfg))
	cmd.AddCommand(migrateTxIDsCmd(cfg))
	cmd.AddCommand(migrateTeamIDsCmd(cfg))
	cmd.AddCommand(migrateShapesCmd(cfg))
	return cmd
}

func migrateGameIDsCmd(cfg *config.Config) *cobra.Command {
	var file string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "game-ids",
		Short: "Regenerate every game identifier from week position",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			changes := migrate.GameIDs(doc, dryRun)
			for _, ch := range changes {
				fmt.Printf("  %s -> %s\n", ch.Old, ch.New)
			}
			if len(changes) == 0 {
				logger.Info("all game IDs already consistent", "file", file)
				return nil
			}
			if dryRun {
				logger.Info("dry run complete, no changes written", "mismatches", len(changes))
				return nil
			}
			if err := store.Save(file, doc); err != nil {
				return err
			}
			logger.Info("migrated game IDs", "count", len(changes), "file", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report mismatches without writing")
	return cmd
}

func migrateTxIDsCmd(cfg *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "tx-ids",
		Short: "Renumber every season's transaction log",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			changes := migrate.TransactionIDs(doc)
			for _, ch := range changes {
				fmt.Printf("  %s -> %s\n", ch.Old, ch.New)
			}
			if len(changes) == 0 {
				logger.Info("all transaction IDs already consistent", "file", file)
				return nil
			}
			if err := store.Save(file, doc); err != nil {
				return err
			}
			logger.Info("migrated transaction IDs", "count", len(changes), "file", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	return cmd
}

func migrateTeamIDsCmd(cfg *config.Config) *cobra.Command {
	var file, league string
	var year int
	cmd := &cobra.Command{
		Use:   "team-ids",
		Short: "Stamp team_id onto historical game sides",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			res, err := migrate.TeamIDs(doc, league, year)
			if err != nil {
				return err
			}
			if res.Updated == 0 {
				logger.Info("no changes written, everything already in sync", "file", file)
			} else {
				bak, err := store.Backup(file)
				if err != nil {
					return err
				}
				if err := store.Save(file, doc); err != nil {
					return err
				}
				logger.Info("stamped team IDs", "updated", res.Updated, "backup", bak, "file", file)
			}
			if len(res.Unmatched) > 0 {
				logger.Warn("unmatched team names", "names", strings.Join(res.Unmatched, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().StringVar(&league, "league", "", "League ID, e.g. L001")
	cmd.Flags().IntVar(&year, "year", 0, "Season year, e.g. 2025")
	cmd.MarkFlagRequired("league")
	cmd.MarkFlagRequired("year")
	return cmd
}

func migrateShapesCmd(cfg *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "shapes",
		Short: "Migrate legacy document shapes to the canonical model",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read ledger %s: %w", file, err)
			}
			out, notes, err := migrate.Shapes(raw)
			if err != nil {
				return err
			}
			if len(notes) == 0 {
				logger.Info("ledger already in canonical shape", "file", file)
				return nil
			}
			for _, note := range notes {
				fmt.Println(" -", note)
			}
			bak, err := store.Backup(file)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, append(out, '\n'), 0o644); err != nil {
				return fmt.Errorf("write ledger %s: %w", file, err)
			}
			logger.Info("migrated document shapes", "changes", len(notes), "backup", bak, "file", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	return cmd
}

// --------------------------------------------------------------------------
// export command
// --------------------------------------------------------------------------

func exportCmd(cfg *config.Config) *cobra.Command {
	var file, league, season, outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten a season into JSONL record files",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := store.Load(file)
			if err != nil {
				return err
			}
			return export.Run(doc, league, season, outDir, logger)
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.LedgerPath, "Ledger file")
	cmd.Flags().StringVar(&league, "league", "", "League ID, e.g. L001")
	cmd.Flags().StringVar(&season, "season", "", "Season key, e.g. L001S2025")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.MarkFlagRequired("league")
	cmd.MarkFlagRequired("season")
	return cmd
}

// --------------------------------------------------------------------------
// Shared helpers
// --------------------------------------------------------------------------

// confirm blocks on stdin for a y/n answer. Destructive commands call it
// unless --yes (or LEDGER_ASSUME_YES) was given.
func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}
