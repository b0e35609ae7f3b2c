package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spigell/hh-interviewer/internal/ai/heuristic"
	"github.com/spigell/hh-interviewer/internal/engine"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run scripted candidates through offline interviews in parallel",
	Run: func(cmd *cobra.Command, _ []string) {
		simulate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntP("candidates", "n", 8, "number of simulated candidates")
	simulateCmd.Flags().IntP("concurrency", "c", 4, "interviews running at the same time")
	simulateCmd.Flags().StringP("type", "t", string(interview.TypeMixed), "interview type")
	simulateCmd.Flags().String("tier", "", "experience tier for every candidate (default rotates through all tiers)")
}

type simulatedCandidate struct {
	profile interview.Profile
	// level in [0,1] controls how complete the scripted answers are.
	level float64
}

type simulationResult struct {
	candidate simulatedCandidate
	sessionID string
	report    *interview.Report
}

func simulate(cmd *cobra.Command) {
	logger, err := newLogger("stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config := loadConfig(logger)

	count, _ := cmd.Flags().GetInt("candidates")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if count <= 0 {
		logger.Fatal("at least one candidate is required")
	}

	kind, err := interview.ParseType(cmd.Flag("type").Value.String())
	if err != nil {
		logger.Fatal("parsing interview type", zap.Error(err))
	}

	var fixedTier interview.Tier
	if raw := cmd.Flag("tier").Value.String(); raw != "" {
		if fixedTier, err = interview.ParseTier(raw); err != nil {
			logger.Fatal("parsing experience tier", zap.Error(err))
		}
	}

	seq, err := newSequencer(config, logger)
	if err != nil {
		logger.Fatal("building phase sequencer", zap.Error(err))
	}
	bank, err := newBank(config.Questions)
	if err != nil {
		logger.Fatal("loading question bank", zap.Error(err))
	}

	cfg := engineConfig(config)
	eng, err := engine.New(cfg, &engine.Deps{
		Store:     store.NewMemory(),
		Sequencer: seq,
		Oracle:    heuristic.New(),
		Supply:    bank,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("building the interview engine", zap.Error(err))
	}

	candidates := simulatedCandidates(count, kind, fixedTier)
	results := make([]simulationResult, len(candidates))

	g, ctx := errgroup.WithContext(context.Background())
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	started := time.Now()
	for i, c := range candidates {
		g.Go(func() error {
			res, err := runScripted(ctx, eng, c)
			if err != nil {
				return fmt.Errorf("candidate %s: %w", c.profile.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	logger.Info("simulation finished",
		zap.Int("candidates", len(candidates)),
		zap.Duration("took", time.Since(started)),
	)

	printSimulation(cmd.OutOrStdout(), results)
}

func simulatedCandidates(count int, kind interview.Type, tier interview.Tier) []simulatedCandidate {
	tiers := []interview.Tier{interview.TierJunior, interview.TierMid, interview.TierSenior, interview.TierLead}
	skills := [][]string{
		{"go", "postgres", "kubernetes"},
		{"python", "django", "redis"},
		{"java", "kafka", "spring"},
		{"typescript", "react", "graphql"},
	}

	out := make([]simulatedCandidate, 0, count)
	for i := 0; i < count; i++ {
		t := tier
		if t == "" {
			t = tiers[i%len(tiers)]
		}
		level := 1.0
		if count > 1 {
			level = float64(i) / float64(count-1)
		}
		out = append(out, simulatedCandidate{
			profile: interview.Profile{
				Name:     fmt.Sprintf("candidate-%02d", i+1),
				Position: "Software Engineer",
				Tier:     t,
				Type:     kind,
				Skills:   &interview.SkillSummary{Skills: skills[i%len(skills)]},
			},
			level: level,
		})
	}
	return out
}

// runScripted answers every question of a session and finalizes it.
func runScripted(ctx context.Context, eng *engine.Engine, c simulatedCandidate) (simulationResult, error) {
	session, err := eng.Create(ctx, c.profile, 0)
	if err != nil {
		return simulationResult{}, err
	}

	for {
		q, err := eng.NextQuestion(ctx, session.ID)
		if errors.Is(err, interview.ErrPlanComplete) || errors.Is(err, interview.ErrNoQuestionAvailable) {
			break
		}
		if err != nil {
			return simulationResult{}, err
		}

		answer := scriptedAnswer(q, c.profile.SkillList(), c.level)
		seconds := float64(q.ExpectedDuration) * (0.5 + c.level)
		if _, err := eng.SubmitResponse(ctx, session.ID, q.ID, answer, seconds); err != nil {
			return simulationResult{}, err
		}
	}

	report, err := eng.Finalize(ctx, session.ID)
	if err != nil {
		return simulationResult{}, err
	}
	return simulationResult{candidate: c, sessionID: session.ID, report: report}, nil
}

// scriptedAnswer echoes a share of the question vocabulary and the candidate
// skills, padded to a length growing with level.
func scriptedAnswer(q *interview.Question, skills []string, level float64) string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(q.Text)) {
		w = strings.Trim(w, ".,?!:;\"'()")
		if len(w) >= 4 {
			words = append(words, w)
		}
	}
	words = append(words, skills...)

	keep := int(float64(len(words))*level + 0.5)
	answer := append([]string{}, words[:keep]...)

	filler := int(130 * level)
	for i := 0; i < filler; i++ {
		answer = append(answer, "detail")
	}
	if len(answer) == 0 {
		return "I am not sure."
	}
	return strings.Join(answer, " ")
}

func printSimulation(out io.Writer, results []simulationResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].report.Overall > results[j].report.Overall
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CANDIDATE\tTIER\tQUESTIONS\tOVERALL\tRECOMMENDATION\tCONFIDENCE\tFINAL DIFFICULTY")
	for _, r := range results {
		final := "-"
		if n := len(r.report.DifficultyProgression); n > 0 {
			final = string(r.report.DifficultyProgression[n-1])
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\t%s\t%s\n",
			r.candidate.profile.Name, r.candidate.profile.Tier, r.report.TotalQuestions,
			r.report.Overall, r.report.Recommendation, r.report.Confidence, final,
		)
	}
	w.Flush()
}
