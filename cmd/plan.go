package cmd

import (
	"fmt"
	"log"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the phase plan for an interview type and tier",
	Run: func(cmd *cobra.Command, _ []string) {
		printPlan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringP("type", "t", string(interview.TypeTechnical), "interview type: technical, behavioral, mixed or leadership")
	planCmd.Flags().String("tier", string(interview.TierMid), "experience tier: junior, mid-level, senior or lead")
	planCmd.Flags().Duration("budget", 0, "interview duration budget (default is interview.default-budget)")
}

func printPlan(cmd *cobra.Command) {
	logger, err := newLogger("stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config := loadConfig(logger)

	kind, err := interview.ParseType(cmd.Flag("type").Value.String())
	if err != nil {
		logger.Fatal("parsing interview type", zap.Error(err))
	}
	tier, err := interview.ParseTier(cmd.Flag("tier").Value.String())
	if err != nil {
		logger.Fatal("parsing experience tier", zap.Error(err))
	}

	budget, _ := cmd.Flags().GetDuration("budget")
	if budget <= 0 {
		budget = engineConfig(config).DefaultBudget
	}
	if budget <= 0 {
		budget = time.Hour
	}

	seq, err := newSequencer(config, logger)
	if err != nil {
		logger.Fatal("building phase sequencer", zap.Error(err))
	}

	plan := seq.Plan(kind, tier)
	windows := plan.Windows(budget)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s interview, %s tier, %s budget: %d questions, %s planned\n\n",
		kind, tier, budget, plan.TotalQuestions(), plan.TotalDuration())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPHASE\tTITLE\tDIFFICULTY\tQUESTIONS\tDURATION\tWINDOW")
	for i, def := range plan {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s-%s\n",
			i+1, def.Name, def.Title, def.Band, def.Questions, def.Duration,
			windows[i].Start, windows[i].End,
		)
	}
	w.Flush()
}
