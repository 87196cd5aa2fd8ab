package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junosixteen/questengine/internal/hypothesis"
	"github.com/junosixteen/questengine/internal/planner"
	"github.com/junosixteen/questengine/internal/rubric"
	"github.com/junosixteen/questengine/internal/ui/theme"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compose a mission plan for a user and world",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		mission, _ := cmd.Flags().GetString("mission")
		world, _ := cmd.Flags().GetString("world")
		difficulty, _ := cmd.Flags().GetString("difficulty")

		e, st, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		plan, err := e.Plan(cmd.Context(), planner.Goal{
			UserID:    user,
			MissionID: mission,
			World:     world,
		}, planner.PlanContext{
			Difficulty: hypothesis.Difficulty(difficulty),
		})
		if err != nil {
			return fmt.Errorf("plan mission: %w", err)
		}

		fmt.Println(theme.Title.Render(fmt.Sprintf("Mission %s (%s)", mission, world)))
		fmt.Println(theme.Subtitle.Render(fmt.Sprintf("difficulty %s, %d lives, hypothesis %s", plan.Difficulty, plan.Lives, plan.HypothesisID)))
		fmt.Println()
		fmt.Println(theme.Card.Render(plan.Briefing))
		fmt.Println()

		for _, q := range plan.Quests {
			label := string(q.Kind)
			switch q.Kind {
			case rubric.KindRisk:
				label = theme.Warning.Render("risk")
			case rubric.KindTeam:
				label = theme.Label.Render("team")
			default:
				label = theme.Subtitle.Render("standard")
			}
			fmt.Printf("%2d. %s  %s\n", q.Index, label, q.Prompt)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().String("user", "", "User id")
	planCmd.Flags().String("mission", "", "Mission id")
	planCmd.Flags().String("world", "default", "World the mission plays in")
	planCmd.Flags().String("difficulty", "", "Override starting difficulty (easy|medium|hard)")
	_ = planCmd.MarkFlagRequired("user")
	_ = planCmd.MarkFlagRequired("mission")
}
