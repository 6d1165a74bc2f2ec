package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "foldmap",
	Short:        "foldmap: Foldseek kNN pipeline for protein-structure maps",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `foldmap turns a directory of protein structure files into a top-k
nearest-neighbor edge list by driving foldseek through database build,
index build and structural search. The edge list feeds the downstream
embedding and visualization steps.`,
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
