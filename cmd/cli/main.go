package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ecgrisk-cli",
		Short: "Offline tools for synthesized ECG leads: synthesis, rendering, preprocessing and export",
	}

	rootCmd.AddCommand(
		newSynthCmd(),
		newRenderCmd(),
		newPreprocessCmd(),
		newAugmentCmd(),
		newExportCmd(),
		newCurvesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
