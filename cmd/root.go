package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photo-migrate",
	Short: "Migrate face labels from Windows Photos Legacy into Immich",
	Long: `photo-migrate reads the face-recognition labels recorded by the
legacy Windows Photos app and reconciles them against faces already detected
by a running Immich instance, so that the work already done naming people
does not have to be repeated by hand.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
