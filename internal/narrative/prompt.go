package narrative

import (
	"fmt"
	"strings"
)

const briefingSystemPrompt = `You are the mission narrator for a team-based learning game. Players take on short missions framed as field operations in a themed world. Your job is to set the scene before the mission starts.`

func buildBriefingUserMessage(input BriefingInput) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("World: %s\n", input.World))
	b.WriteString(fmt.Sprintf("Difficulty: %s\n", input.Difficulty))
	b.WriteString(fmt.Sprintf("Questions in mission: %d\n", input.QuestCount))

	b.WriteString("\nBase briefing to rewrite:\n")
	b.WriteString(input.BaseText)
	b.WriteString("\n")

	b.WriteString(`
Instructions:
Rewrite the base briefing as a short mission briefing, 2-4 sentences. Keep
the factual content (world, stakes) intact. Address the player directly.
Do not reveal answers, do not invent new questions, and do not add rules
that the briefing above does not mention. Plain text only.`)

	return b.String()
}

const debriefSystemPrompt = `You are the mission narrator for a team-based learning game. A mission has just ended and you deliver the closing words.`

func buildDebriefUserMessage(input DebriefInput) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("World: %s\n", input.World))
	if input.Success {
		b.WriteString("Outcome: success\n")
	} else {
		b.WriteString("Outcome: failure\n")
	}
	b.WriteString(fmt.Sprintf("Points earned: %d\n", input.Points))
	b.WriteString(fmt.Sprintf("Correct answers: %d of %d\n", input.Correct, input.Attempted))

	b.WriteString("\nBase debrief to rewrite:\n")
	b.WriteString(input.BaseText)
	b.WriteString("\n")

	b.WriteString(`
Instructions:
Rewrite the base debrief in 2-3 sentences, matching the outcome. On failure
stay encouraging without being saccharine. Do not mention point formulas or
game mechanics beyond the numbers given. Plain text only.`)

	return b.String()
}
