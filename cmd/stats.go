package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junosixteen/questengine/internal/store"
	"github.com/junosixteen/questengine/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded attempts for a mission",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		mission, _ := cmd.Flags().GetString("mission")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		attempts, err := st.Audit().AttemptsFor(cmd.Context(), user, mission)
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}
		if len(attempts) == 0 {
			fmt.Println("No attempts recorded.")
			return nil
		}

		correct, points := 0, 0
		var scoreSum float64
		for _, a := range attempts {
			if a.Correct {
				correct++
			}
			points += a.PointDelta
			scoreSum += a.Score
		}

		fmt.Println(theme.Title.Render(fmt.Sprintf("Mission %s — %s", mission, user)))
		fmt.Println(theme.Subtitle.Render(fmt.Sprintf(
			"%d attempts, %d correct, avg score %.2f, %d points",
			len(attempts), correct, scoreSum/float64(len(attempts)), points,
		)))
		fmt.Println()

		fmt.Printf("%-6s  %-20s  %-7s  %-6s  %-7s  %-8s  %s\n",
			"Seq", "Quest", "Correct", "Score", "Points", "Ms", "Challenge")
		for _, a := range attempts {
			mark := theme.Incorrect.Render("✗")
			if a.Correct {
				mark = theme.Correct.Render("✓")
			}
			fmt.Printf("%-6d  %-20s  %-7s  %-6.2f  %-7d  %-8d  %s\n",
				a.Sequence, a.QuestID, mark, a.Score, a.PointDelta, a.ElapsedMs, a.Challenge)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("user", "", "User id")
	statsCmd.Flags().String("mission", "", "Mission id")
	_ = statsCmd.MarkFlagRequired("user")
	_ = statsCmd.MarkFlagRequired("mission")
}
