package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/junosixteen/questengine/internal/engine"
	"github.com/junosixteen/questengine/internal/llm"
	"github.com/junosixteen/questengine/internal/narrative"
	"github.com/junosixteen/questengine/internal/store"
)

// buildEngine opens the audit store and assembles a fully wired engine.
// The caller owns the returned store and must close it.
func buildEngine(cmd *cobra.Command) (*engine.Engine, *store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	var narr *narrative.Service
	provider, err := llm.NewProvider(cmd.Context(), llm.ConfigFromEnv(), st.Audit())
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Mission narration falls back to policy text.")
	} else {
		narr = narrative.NewService(provider, narrative.DefaultConfig())
	}

	e := engine.New(engine.Options{
		PolicyDir: policyDir(),
		Audit:     st.Audit(),
		Narrative: narr,
	})
	return e, st, nil
}

// policyDir resolves the world policy directory from the environment. An
// empty directory means the built-in default policy applies everywhere.
func policyDir() string {
	return os.Getenv("QUESTENGINE_POLICY_DIR")
}
