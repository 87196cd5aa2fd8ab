package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junosixteen/questengine/internal/store"
	"github.com/junosixteen/questengine/internal/ui/theme"
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show the fired-rule trace of the latest gating decision",
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

		session := user + ":" + mission
		dec, err := st.Audit().LatestDecision(cmd.Context(), session)
		if err != nil {
			return fmt.Errorf("query decision: %w", err)
		}
		if dec == nil {
			fmt.Println("No decision recorded for this session.")
			return nil
		}

		fmt.Println(theme.Title.Render(fmt.Sprintf("Session %s", session)))
		fmt.Println(theme.Subtitle.Render(fmt.Sprintf(
			"status %s, rules %s, decided %s",
			dec.Status, dec.RuleVersion, dec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		)))
		fmt.Println()
		fmt.Printf("%s %d raw / %d final\n", theme.Label.Render("Points:"), dec.PointsRaw, dec.PointsFinal)
		fmt.Printf("%s %d\n", theme.Label.Render("Next question:"), dec.NextQuestion)
		fmt.Println(theme.Label.Render("Fired rules, in order:"))
		for i, name := range dec.FiredRules {
			fmt.Printf("  %d. %s\n", i+1, name)
		}
		return nil
	},
}

func init() {
	explainCmd.Flags().String("user", "", "User id")
	explainCmd.Flags().String("mission", "", "Mission id")
	_ = explainCmd.MarkFlagRequired("user")
	_ = explainCmd.MarkFlagRequired("mission")
}
