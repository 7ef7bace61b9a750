// Command hostcore runs the hotel backend API and its maintenance tasks.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/karua/hostcore/pkg/logx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "hostcore",
	Short:         "Multi-tenant hotel backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Overload(); err != nil {
			logx.Debug("no .env file, using the process environment")
		}
		logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logx.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
