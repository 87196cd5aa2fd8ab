package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/junosixteen/questengine/internal/engine"
	"github.com/junosixteen/questengine/internal/executor"
	"github.com/junosixteen/questengine/internal/hypothesis"
	"github.com/junosixteen/questengine/internal/planner"
	"github.com/junosixteen/questengine/internal/rules"
	"github.com/junosixteen/questengine/internal/ui/theme"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a mission interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		mission, _ := cmd.Flags().GetString("mission")
		world, _ := cmd.Flags().GetString("world")

		e, st, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		plan, err := e.Plan(cmd.Context(), planner.Goal{
			UserID:    user,
			MissionID: mission,
			World:     world,
		}, planner.PlanContext{})
		if err != nil {
			return fmt.Errorf("plan mission: %w", err)
		}

		fmt.Println(theme.Title.Render(fmt.Sprintf("Mission %s", mission)))
		fmt.Println(theme.Card.Render(plan.Briefing))
		fmt.Println()

		in := bufio.NewReader(cmd.InOrStdin())
		success, err := runMission(cmd, e, in, plan, user, mission)
		if err != nil {
			return err
		}

		rec, debrief, err := e.Finish(cmd.Context(), user, mission, success)
		if err != nil {
			return fmt.Errorf("finish mission: %w", err)
		}
		fmt.Println()
		if success {
			fmt.Println(theme.Correct.Render("Mission complete."))
		} else {
			fmt.Println(theme.Incorrect.Render("Mission failed."))
		}
		fmt.Println(theme.Card.Render(debrief))
		fmt.Println(theme.Subtitle.Render(fmt.Sprintf("%d points banked", rec.Points)))
		if success && plan.Cliffhanger != "" {
			fmt.Println(theme.Hint.Render(plan.Cliffhanger))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("user", "", "User id")
	runCmd.Flags().String("mission", "", "Mission id")
	runCmd.Flags().String("world", "default", "World the mission plays in")
	_ = runCmd.MarkFlagRequired("user")
	_ = runCmd.MarkFlagRequired("mission")
}

// runMission walks the quest sequence, consulting the gate before every
// transition. It returns whether the mission ended in success.
func runMission(cmd *cobra.Command, e *engine.Engine, in *bufio.Reader, plan *planner.Plan, user, mission string) (bool, error) {
	ctx := cmd.Context()
	index := 1
	for {
		if index > len(plan.Quests) {
			return true, nil
		}
		q := plan.Quests[index-1]

		fmt.Println(theme.Label.Render(fmt.Sprintf("Question %d of %d (%s)", q.Index, len(plan.Quests), q.Kind)))
		fmt.Println(theme.Body.Render(q.Prompt))
		for i, opt := range q.Options {
			fmt.Printf("  %c) %s\n", 'a'+i, opt.Text)
		}

		started := time.Now()
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("read answer: %w", err)
		}
		elapsed := time.Since(started).Milliseconds()

		choice := strings.TrimSpace(strings.ToLower(line))
		correct, selected := false, choice
		if len(choice) == 1 {
			if i := int(choice[0] - 'a'); i >= 0 && i < len(q.Options) {
				correct = q.Options[i].Correct
				selected = q.Options[i].ID
			}
		}

		res, err := e.Evaluate(ctx, engine.EvaluateRequest{
			Request: executor.Request{
				UserID:    user,
				MissionID: mission,
				QuestID:   q.ID,
				Selected:  selected,
				Correct:   correct,
				ElapsedMs: elapsed,
				Kind:      q.Kind,
			},
		})
		if err != nil {
			// The gate failed closed: report and hold the question.
			fmt.Println(theme.Warning.Render("Evaluation unavailable, answer not gated. Try again."))
			fmt.Println(theme.Hint.Render(err.Error()))
			continue
		}

		if correct {
			fmt.Println(theme.Correct.Render(fmt.Sprintf("%s (+%d points)", res.Feedback, res.PointDelta)))
			if res.StreakBonus > 0 {
				fmt.Println(theme.Warning.Render(fmt.Sprintf("Streak bonus: +%d", res.StreakBonus)))
			}
		} else {
			fmt.Println(theme.Incorrect.Render(res.Feedback))
		}

		feedHint(e, res)

		switch res.Decision.Status {
		case rules.StatusResetRisk:
			fmt.Println(theme.Warning.Render("A risk question went wrong. The mission restarts at question 1."))
			if _, err := e.Reset(user, mission); err != nil {
				return false, fmt.Errorf("reset mission: %w", err)
			}
			// The restart is a natural point to re-read the whole history.
			_, _ = e.Recalibrate(user, mission)
			index = 1
		case rules.StatusResetDeadline:
			fmt.Println(theme.Warning.Render("The mission deadline passed."))
			return false, nil
		case rules.StatusPassed:
			return true, nil
		default:
			index = int(res.Decision.NextQuestion)
			if index < 1 {
				index = 1
			}
		}
		fmt.Println()
	}
}

// feedHint folds the executor's convergence hint back into the hypothesis.
func feedHint(e *engine.Engine, res *engine.EvaluateResult) {
	if res.HypothesisID == "" {
		return
	}
	adj := 0
	switch res.Hint {
	case executor.HintRaise:
		adj = 1
	case executor.HintLower:
		adj = -1
	}
	_, _ = e.Update(res.HypothesisID, hypothesis.Signals{
		DifficultyAdj: adj,
		Fatigue:       res.Signals.Fatigue,
		GuessPattern:  res.Signals.GuessPattern,
	})
}
