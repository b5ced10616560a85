// Package cmd provides the command-line interface for rocketship.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rocketship",
	Short: "rocketship replays LLC traces through a SHiP++/Hawkeye engine.",
	Long: `rocketship replays last-level cache access traces through a ` +
		`replacement engine that duels SHiP++ against Hawkeye. Defaults can ` +
		`be set with ROCKETSHIP_* environment variables or a .env file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Ignoring .env: %v\n", err)
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newGenCmd())
	rootCmd.AddCommand(newReportCmd())
}
