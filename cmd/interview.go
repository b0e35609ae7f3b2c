package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spigell/hh-interviewer/internal/engine"
	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	PromptNextQuestion = "Next question"
	PromptShowProgress = "Show progress report"
	PromptFinish       = "Finish the interview"
)

var errFinish = errors.New("finish requested")

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("profile", "p", "", "yaml file with the candidate profile. Prompts for it when unset.")
	interviewCmd.Flags().Duration("budget", 0, "interview duration budget (default is interview.default-budget)")
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger("stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config := loadConfig(logger)

	eng, closeStore, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the interview engine", zap.Error(err))
	}
	defer closeStore()

	profile, err := resolveProfile(cmd.Flag("profile").Value.String())
	if err != nil {
		logger.Fatal("reading candidate profile", zap.Error(err))
	}

	budget, _ := cmd.Flags().GetDuration("budget")

	session, err := eng.Create(ctx, *profile, budget)
	if err != nil {
		logger.Fatal("creating the interview", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nInterview %s for %s (%s) started, %s budget.\n",
		session.ID, profile.Name, profile.Position, session.DurationBudget)

	if err := conduct(ctx, eng, session.ID, out); err != nil && !errors.Is(err, errFinish) {
		logger.Warn("interview stopped early", zap.Error(err))
	}

	report, err := eng.Finalize(ctx, session.ID)
	if errors.Is(err, interview.ErrSessionTerminal) {
		report, err = eng.Report(ctx, session.ID)
	}
	if err != nil {
		logger.Fatal("building the report", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(report, "", "  ")
	fmt.Fprintf(out, "\n%s\n", pretty)
}

// conduct asks questions until the plan is complete, the session ends or the
// interviewer finishes it.
func conduct(ctx context.Context, eng *engine.Engine, id string, out io.Writer) error {
	for {
		q, err := eng.NextQuestion(ctx, id)
		switch {
		case errors.Is(err, interview.ErrPlanComplete):
			fmt.Fprintln(out, "\nAll phases are complete.")
			return nil
		case errors.Is(err, interview.ErrNoQuestionAvailable):
			fmt.Fprintln(out, "\nNo more questions available, finishing early.")
			return nil
		case errors.Is(err, interview.ErrSessionExpired):
			fmt.Fprintln(out, "\nThe interview ran out of time.")
			return nil
		case err != nil:
			return err
		}

		fmt.Fprintf(out, "\n[%s / %s] %s\n", q.Phase, q.Difficulty, q.Text)

		started := time.Now()
		answerPrompt := promptui.Prompt{Label: "Answer"}
		answer, err := answerPrompt.Run()
		if err != nil {
			return fmt.Errorf("%w: %w", errFinish, err)
		}

		eval, err := eng.SubmitResponse(ctx, id, q.ID, answer, time.Since(started).Seconds())
		if err != nil {
			return err
		}
		printEvaluation(out, eval)

		if err := afterAnswer(ctx, eng, id, out); err != nil {
			return err
		}
	}
}

func afterAnswer(ctx context.Context, eng *engine.Engine, id string, out io.Writer) error {
	for {
		prompt := promptui.Select{
			Label: "Proceed?",
			Items: []string{PromptNextQuestion, PromptShowProgress, PromptFinish},
		}
		_, action, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("%w: %w", errFinish, err)
		}

		switch action {
		case PromptNextQuestion:
			return nil
		case PromptFinish:
			return errFinish
		case PromptShowProgress:
			report, err := eng.Report(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "overall %.1f after %d responses (%s, %s confidence)\n",
				report.Overall, report.TotalResponses, report.Recommendation, report.Confidence)
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func printEvaluation(out io.Writer, eval *interview.Evaluation) {
	if eval.Ungraded {
		fmt.Fprintln(out, "Answer recorded. Scoring is unavailable right now.")
		return
	}

	fmt.Fprintf(out, "Score: %.1f/10\n", eval.Overall())
	if eval.Feedback != "" {
		fmt.Fprintf(out, "Feedback: %s\n", eval.Feedback)
	}
	if len(eval.Strengths) > 0 {
		fmt.Fprintf(out, "Strengths: %s\n", strings.Join(eval.Strengths, "; "))
	}
	if len(eval.Improvements) > 0 {
		fmt.Fprintf(out, "To improve: %s\n", strings.Join(eval.Improvements, "; "))
	}
}

// resolveProfile reads the profile from path or prompts for it.
func resolveProfile(path string) (*interview.Profile, error) {
	if strings.TrimSpace(path) != "" {
		return readProfile(path)
	}
	return promptProfile()
}

func readProfile(path string) (*interview.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", path, err)
	}

	var profile interview.Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parsing profile %q: %w", path, err)
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

func promptProfile() (*interview.Profile, error) {
	required := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("value is required")
		}
		return nil
	}

	name, err := (&promptui.Prompt{Label: "Candidate name", Validate: required}).Run()
	if err != nil {
		return nil, err
	}
	position, err := (&promptui.Prompt{Label: "Position", Validate: required}).Run()
	if err != nil {
		return nil, err
	}

	tierPrompt := promptui.Select{
		Label: "Experience tier",
		Items: []string{string(interview.TierJunior), string(interview.TierMid), string(interview.TierSenior), string(interview.TierLead)},
	}
	_, tier, err := tierPrompt.Run()
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(interview.Types()))
	for _, t := range interview.Types() {
		types = append(types, string(t))
	}
	_, kind, err := (&promptui.Select{Label: "Interview type", Items: types}).Run()
	if err != nil {
		return nil, err
	}

	skills, err := (&promptui.Prompt{Label: "Skills (comma separated, optional)"}).Run()
	if err != nil {
		return nil, err
	}

	profile := &interview.Profile{
		Name:     strings.TrimSpace(name),
		Position: strings.TrimSpace(position),
		Tier:     interview.Tier(tier),
		Type:     interview.Type(kind),
	}
	if list := splitList(skills); len(list) > 0 {
		profile.Skills = &interview.SkillSummary{Skills: list}
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
