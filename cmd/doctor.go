package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/structbio/foldmap/internal/config"
	"github.com/structbio/foldmap/internal/engine"
)

var flagDoctorTmp string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that foldmap's environment is ready for a pipeline run:
foldseek on PATH, a writable scratch directory with space to spare, and a
parseable config file when one is present. Run this when something seems
wrong, or before kicking off a long search.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&flagDoctorTmp, "tmp", config.DefaultScratch, "Scratch directory to probe")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("foldmap doctor")
	fmt.Println()

	// ── Check 1: foldseek installed ───────────────────────────────────────────
	fmt.Println("[ foldseek ]")
	if err := engine.Available(); err != nil {
		failD("%v", err)
	} else if v, err := engine.Version(); err != nil {
		printWarn("", fmt.Sprintf("foldseek found but version query failed: %v", err))
	} else {
		printOK("", fmt.Sprintf("foldseek %s", v))
	}
	fmt.Println()

	// ── Check 2: scratch directory ────────────────────────────────────────────
	fmt.Println("[ scratch directory ]")
	scratch, err := config.ExpandPath(flagDoctorTmp)
	if err != nil {
		failD("cannot resolve scratch path: %v", err)
	} else if err := probeScratch(scratch); err != nil {
		failD("scratch directory %s is not writable: %v", scratch, err)
	} else {
		printOK("", fmt.Sprintf("writable: %s", scratch))
		if free, ok := diskFree(scratch); ok {
			printInfo("", npr.Sprintf("%d MiB free on the scratch volume", free/(1<<20)))
		}
	}
	fmt.Println()

	// ── Check 3: config file ──────────────────────────────────────────────────
	fmt.Println("[ foldmap.yaml ]")
	if _, err := os.Stat("foldmap.yaml"); os.IsNotExist(err) {
		printSkip("", "no foldmap.yaml in the working directory (flags-only operation)")
	} else if f, err := config.LoadFile("foldmap.yaml"); err != nil {
		failD("cannot parse foldmap.yaml: %v", err)
	} else {
		printOK("", "valid YAML")
		if f.InputDir != "" {
			if _, err := os.Stat(f.InputDir); os.IsNotExist(err) {
				printWarn("", fmt.Sprintf("configured input_dir does not exist: %s", f.InputDir))
			}
		}
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. foldmap is ready to run.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

// probeScratch verifies the scratch directory can be created and written.
func probeScratch(scratch string) error {
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(scratch, ".foldmap-doctor-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
