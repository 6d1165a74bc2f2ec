package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/structbio/foldmap/internal/config"
	"github.com/structbio/foldmap/internal/engine"
	"github.com/structbio/foldmap/internal/pipeline"
	"github.com/structbio/foldmap/internal/result"
)

var (
	flagRunInput   string
	flagRunQuery   string
	flagRunDB      string
	flagRunOut     string
	flagRunTmp     string
	flagRunTopK    int
	flagRunThreads int
	flagRunForce   bool
	flagRunConfig  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the structure database and run the top-k structural search",
	Long: `Run the full pipeline: build a foldseek database from the input
directory (skipped when one is already complete), build a search index,
then run a TM-align top-k search of the query set against the database.

The search first requests the extended output schema (with the alntmscore
column) and falls back to the reduced schema when the installed foldseek
build rejects it. The edge list lands at the output path as a headerless
tab-separated table.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagRunInput, "input", "", "Directory of structure files to index (required)")
	runCmd.Flags().StringVar(&flagRunQuery, "query", "", "Query structure directory (default: same as --input)")
	runCmd.Flags().StringVar(&flagRunDB, "db", "", fmt.Sprintf("Database name/prefix (default %q)", config.DefaultDBName))
	runCmd.Flags().StringVar(&flagRunOut, "out", "", fmt.Sprintf("Result table path (default %q)", config.DefaultOutput))
	runCmd.Flags().StringVar(&flagRunTmp, "tmp", "", fmt.Sprintf("Scratch directory for index and search (default %q)", config.DefaultScratch))
	runCmd.Flags().IntVarP(&flagRunTopK, "top-k", "k", 0, fmt.Sprintf("Max neighbors per query (default %d)", config.DefaultTopK))
	runCmd.Flags().IntVar(&flagRunThreads, "threads", 0, "Thread count passed to foldseek (default: online CPUs)")
	runCmd.Flags().BoolVar(&flagRunForce, "force", false, "Wipe and rebuild an existing database")
	runCmd.Flags().StringVar(&flagRunConfig, "config", "", "Optional foldmap.yaml with pre-set parameters")
	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, _ []string) error {
	file, err := loadRunConfigFile(flagRunInput)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(config.Options{
		InputDir: flagRunInput,
		QueryDir: flagRunQuery,
		DBName:   flagRunDB,
		Output:   flagRunOut,
		Scratch:  flagRunTmp,
		TopK:     flagRunTopK,
		Threads:  flagRunThreads,
		Force:    flagRunForce,
	}, file)
	if err != nil {
		return err
	}
	if err := engine.Available(); err != nil {
		return err
	}
	return executeRun(cfg, &engine.ExecRunner{})
}

// loadRunConfigFile loads --config when given, else a foldmap.yaml next to
// the input directory, else one in the working directory, else nothing.
func loadRunConfigFile(inputDir string) (*config.File, error) {
	if flagRunConfig != "" {
		return config.LoadFile(flagRunConfig)
	}
	if inputDir != "" {
		beside := filepath.Join(inputDir, "foldmap.yaml")
		if _, err := os.Stat(beside); err == nil {
			return config.LoadFile(beside)
		}
	}
	if _, err := os.Stat("foldmap.yaml"); err == nil {
		return config.LoadFile("foldmap.yaml")
	}
	return nil, nil
}

// executeRun holds the run lock, drives the pipeline and prints the
// terminal report. Split from runRun so tests can inject a fake engine.
func executeRun(cfg *config.Config, runner engine.Runner) error {
	printSection("foldmap run")

	// Validate the structure sets before touching the filesystem, so a
	// missing-directory run has no side effect at all, not even a lock
	// file.
	if err := pipeline.CheckInputs(cfg); err != nil {
		return err
	}

	// Concurrent runs against one database prefix race on its marker
	// artifacts; hold an advisory lock next to the database for the
	// whole run. The lock file is not a database marker.
	l := flock.New(cfg.DBName + ".lock")
	locked, err := l.TryLock()
	if err != nil {
		return fmt.Errorf("cannot acquire database lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another foldmap run holds the lock for database %s (%s.lock)", cfg.DBName, cfg.DBName)
	}
	defer func() {
		_ = l.Unlock()
		// A second run never waits on the lock, it fails fast, so
		// unlinking here cannot break mutual exclusion.
		_ = os.Remove(l.Path())
	}()

	rep := pipeline.Reporter{
		Info: func(msg string) { printInfo("", msg) },
		Done: func(msg string) { printOK("", msg) },
		Skip: func(msg string) { printSkip("", msg) },
		Warn: func(msg string) { printWarn("", msg) },
	}
	res, err := pipeline.New(cfg, runner, rep).Run()
	if err != nil {
		return err
	}

	summarizeRun(cfg, res)
	return nil
}

func summarizeRun(cfg *config.Config, res *pipeline.Result) {
	fmt.Println()
	printOK("", fmt.Sprintf("edge list written: %s", cfg.Output))
	if res.Schema.Name == "reduced" {
		printWarn("", "reduced output schema in effect: no TM-score column, bit score is the ranking signal")
	}

	tab, err := result.Load(cfg.Output)
	if err != nil {
		printWarn("", fmt.Sprintf("cannot summarize result table: %v", err))
		return
	}
	// The per-query cap is a hard contract for the downstream embedding
	// step; trim the table when the engine did not honor --max-seqs.
	if tab.MaxPerQuery() > cfg.TopK {
		printWarn("", npr.Sprintf("a query has %d neighbors, more than top-k %d; trimming the edge list",
			tab.MaxPerQuery(), cfg.TopK))
		tab = tab.TopK(cfg.TopK)
		if err := writeResultTable(cfg.Output, tab); err != nil {
			printWarn("", fmt.Sprintf("cannot rewrite trimmed table: %v", err))
			return
		}
	}
	printOK("", npr.Sprintf("%d rows across %d queries (top-k %d, %s schema)",
		len(tab.Rows), len(tab.QueryCounts()), cfg.TopK, res.Schema.Name))
}

func writeResultTable(path string, tab *result.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tab.WriteTSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
