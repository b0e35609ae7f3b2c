package cmd

import (
	"context"
	"encoding/json"
	"log"

	"github.com/spf13/cobra"
	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Print the report of a stored interview session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printReport(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Bool("finalize", false, "finalize the session before printing the report")
}

func printReport(cmd *cobra.Command, id string) {
	ctx := context.Background()

	logger, err := newLogger("stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config := loadConfig(logger)
	// Reports never need an LLM.
	if config.AI != nil {
		config.AI.Enabled = false
	}

	eng, closeStore, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the interview engine", zap.Error(err))
	}
	defer closeStore()

	finalize, _ := cmd.Flags().GetBool("finalize")

	var report *interview.Report
	if finalize {
		report, err = eng.Finalize(ctx, id)
	} else {
		report, err = eng.Report(ctx, id)
	}
	if err != nil {
		logger.Fatal("getting the report", zap.String("session_id", id), zap.Error(err))
	}

	pretty, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("encoding the report", zap.Error(err))
	}
	cmd.OutOrStdout().Write(append(pretty, '\n'))
}
