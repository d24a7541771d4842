package usecase

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var errEmptyQuery = errors.New("query must not be empty")

const (
	minAdvisedQueryLength = 10
	maxAdvisedQueryLength = 500
)

// QueryAdvice is a non-blocking review of a query before it is asked.
type QueryAdvice struct {
	Valid       bool
	Issues      []string
	Suggestions []string
	Length      int
}

// QueryAdvisor flags queries that are likely to retrieve poorly.
type QueryAdvisor struct{}

func NewQueryAdvisor() *QueryAdvisor {
	return &QueryAdvisor{}
}

func (a *QueryAdvisor) Validate(query string) QueryAdvice {
	trimmed := strings.TrimSpace(query)
	advice := QueryAdvice{
		Issues:      []string{},
		Suggestions: []string{},
		Length:      utf8.RuneCountInString(trimmed),
	}

	if advice.Length < minAdvisedQueryLength {
		advice.Issues = append(advice.Issues, "Query is too short")
		advice.Suggestions = append(advice.Suggestions, "Please provide more details about what you'd like to know")
	}
	if advice.Length > maxAdvisedQueryLength {
		advice.Issues = append(advice.Issues, "Query is very long")
		advice.Suggestions = append(advice.Suggestions, "Try to make your query more concise")
	}

	switch strings.ToLower(trimmed) {
	case "hi", "hello", "hey", "help":
		advice.Suggestions = append(advice.Suggestions, "Ask a specific question about travel, visas, local laws, or cultural information")
	}

	advice.Valid = len(advice.Issues) == 0
	return advice
}
