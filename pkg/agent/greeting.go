package agent

import (
	"regexp"
	"strings"
)

// GreetingResponse is the canned reply for pure greetings; no model call or
// database work happens for these turns.
const GreetingResponse = "Hello! I am your database assistant. How can I help you query your data today?"

// greetingIntent is the sentinel the understand prompt returns for greetings.
const greetingIntent = "GREETING"

var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|hiya|howdy)\b[\s!.,]*$`),
	regexp.MustCompile(`(?i)^\s*good\s+(morning|afternoon|evening|day)\b[\s!.,]*$`),
	regexp.MustCompile(`(?i)^\s*(how\s+are\s+you|what'?s\s+up|sup)\b[\s?!.,]*$`),
	regexp.MustCompile(`(?i)^\s*(thanks|thank\s+you|bye|goodbye|see\s+ya)\b[\s!.,]*$`),
}

// isGreeting is the model-free fallback check, used when the understand stage
// could not run or returned nothing useful. Pattern match first, then a short
// message heuristic: three words or fewer with no question mark and no digits
// is treated as small talk.
func isGreeting(message string) bool {
	for _, p := range greetingPatterns {
		if p.MatchString(message) {
			return true
		}
	}

	trimmed := strings.TrimSpace(message)
	if strings.ContainsAny(trimmed, "?0123456789") {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, p := range greetingPatterns {
		for _, w := range words {
			if p.MatchString(w) {
				return true
			}
		}
	}
	return false
}
