package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGreeting(t *testing.T) {
	greetings := []string{
		"hi",
		"Hello!",
		"hey",
		"Good morning",
		"good evening!",
		"what's up",
		"How are you?",
		"thanks",
		"bye",
		"hey there",
	}
	for _, msg := range greetings {
		assert.True(t, isGreeting(msg), "expected greeting: %q", msg)
	}

	questions := []string{
		"show me all customers",
		"hello, how many orders shipped last week?",
		"what were sales in 2024",
		"hi level of detail on revenue please, broken down by month",
		"top 5 products",
	}
	for _, msg := range questions {
		assert.False(t, isGreeting(msg), "expected question: %q", msg)
	}
}
