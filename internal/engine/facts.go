package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/junosixteen/questengine/internal/facts"
	"github.com/junosixteen/questengine/internal/points"
	"github.com/junosixteen/questengine/internal/policy"
	"github.com/junosixteen/questengine/internal/progress"
	"github.com/junosixteen/questengine/internal/rubric"
)

// missionLayout fixes where risk and team questions sit in a mission. It is
// captured at plan time so gating does not depend on a policy reload.
type missionLayout struct {
	world        string
	total        int
	riskAt       []int
	teamAt       []int
	hypothesisID string
	lifeCap      int
	bonusLives   int
	points       *points.Engine
	story        storyText
}

// assertedFacts are session facts only the caller can supply. They are
// retained so Gate re-checks the same picture Evaluate decided on.
type assertedFacts struct {
	teamSize    int
	teamCorrect int
	deadline    time.Time
}

type storyText struct {
	debriefSuccess string
	debriefFail    string
	cliffhanger    string
}

// pointsConfig overlays a world policy's gamification table on the
// engine-wide configuration. Policy values win where set.
func pointsConfig(base points.Config, pol *policy.Policy) points.Config {
	cfg := points.Config{
		BasePoints:      make(map[rubric.QuestKind]int, len(base.BasePoints)),
		BonusGamePoints: base.BonusGamePoints,
	}
	for kind, v := range base.BasePoints {
		cfg.BasePoints[kind] = v
	}

	g := pol.Gamification
	if g.BasePoints.Standard > 0 {
		cfg.BasePoints[rubric.KindStandard] = g.BasePoints.Standard
	}
	if g.BasePoints.Risk > 0 {
		cfg.BasePoints[rubric.KindRisk] = g.BasePoints.Risk
	}
	if g.BasePoints.Team > 0 {
		cfg.BasePoints[rubric.KindTeam] = g.BasePoints.Team
	}
	if g.BonusMinigame.Points > 0 {
		cfg.BonusGamePoints = g.BonusMinigame.Points
	}
	return cfg
}

// sessionKey identifies one mission attempt across stores and the audit log.
func sessionKey(userID, missionID string) string {
	return userID + ":" + missionID
}

// questIndex extracts the 1-based question index from a quest id of the
// form "<mission>_q<N>". Unparseable ids map to 0 and never gate anything.
func questIndex(questID string) int64 {
	i := strings.LastIndex(questID, "_q")
	if i < 0 {
		return 0
	}
	n, err := strconv.ParseInt(questID[i+2:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// buildFacts flattens a progress record and the mission layout into the
// fact set the rule evaluator consumes. Risk attempts at the same index are
// labelled as sub-parts in submission order.
func buildFacts(session string, rec *progress.Record, layout missionLayout, req EvaluateRequest) *facts.Set {
	fs := facts.NewSet(session)

	for _, idx := range layout.riskAt {
		fs.Append(facts.PredRiskIndex, facts.Int(int64(idx)))
	}
	for _, idx := range layout.teamAt {
		fs.Append(facts.PredTeamIndex, facts.Int(int64(idx)))
	}
	for i := 1; i <= layout.total; i++ {
		fs.Append(facts.PredRequiredIndex, facts.Int(int64(i)))
	}

	if rec != nil {
		fs.Append(facts.PredCurrentIndex, facts.Int(int64(rec.QuestionIndex)))

		riskParts := make(map[int64]int)
		for _, a := range rec.History {
			idx := questIndex(a.QuestID)
			if idx == 0 {
				continue
			}
			part := facts.PartNone
			if a.Kind == rubric.KindRisk {
				if riskParts[idx] == 0 {
					part = facts.PartA
				} else {
					part = facts.PartB
				}
				riskParts[idx]++
			}
			fs.Append(facts.PredAnswered,
				facts.Int(idx), facts.String(part), facts.Bool(a.Correct))
			if a.PointDelta != 0 {
				fs.Append(facts.PredBasePoints, facts.Int(int64(a.PointDelta)))
			}
			if a.Challenge == rubric.ChallengeSuccess {
				fs.Append(facts.PredChallengeSuccess, facts.Int(idx))
			}
		}
	}

	if req.TeamSize > 0 {
		idx := int64(0)
		if len(layout.teamAt) > 0 {
			idx = int64(layout.teamAt[0])
		}
		fs.Append(facts.PredTeamSize, facts.Int(int64(req.TeamSize)))
		fs.Append(facts.PredTeamCorrect, facts.Int(idx), facts.Int(int64(req.TeamCorrect)))
	}
	if !req.Deadline.IsZero() {
		fs.Append(facts.PredDeadline, facts.Time(req.Deadline))
	}

	return fs
}
