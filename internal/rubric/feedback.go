package rubric

var successFeedback = []string{
	"Correct, keep it up!",
	"Solved it cleanly.",
	"Exactly right.",
	"Spot on, nice work.",
	"Correct. You're on a good track.",
}

var failFeedback = []string{
	"Not quite. Give it another look.",
	"Close, but check the details again.",
	"Not right this time. Mistakes are how you learn.",
	"Incorrect. The right answer was a different option.",
	"Not correct. You'll get the next one.",
}

// feedback picks a deterministic line for the attempt. Selection rotates
// with the attempt count so repeated sessions do not read identically while
// staying reproducible for audit.
func feedback(a Attempt, score float64, attemptCount int) string {
	if a.Challenge == ChallengeFail {
		return "Challenge failed. Next time!"
	}

	var line string
	if a.Correct {
		line = successFeedback[attemptCount%len(successFeedback)]
	} else {
		line = failFeedback[attemptCount%len(failFeedback)]
	}

	if a.Challenge == ChallengeSuccess {
		line += " Challenge cleared!"
	}
	return line
}
