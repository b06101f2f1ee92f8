package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/docsorter/backend/internal/config"
	"github.com/spf13/cobra"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docsorter",
	Short: "Rename project documents and deliver them as an archive or to Dalux",
	Long: `
docsorter renames project documents after the naming convention
PROJECT-TYPE-PHASE-ROLE-Title[-YYYYMMDD].ext, files them into the project
folder taxonomy and delivers them either as a zip archive or by uploading
them to the Dalux document service.
`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to "+config.FileName+" (default: next to the executable)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
