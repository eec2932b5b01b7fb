package advice

import (
	"testing"

	"smartclaim/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSuggestionsPrecedence(t *testing.T) {
	docQs := []string{"d1", "d2", "d3"}
	history := []models.Message{
		{Role: models.RoleModel, SuggestedQuestions: []string{"old"}},
		{Role: models.RoleUser, Text: "q"},
		{Role: models.RoleModel, SuggestedQuestions: []string{"m1", "m2", "m3"}},
		{Role: models.RoleUser, Text: "follow up"},
	}
	require.Equal(t, []string{"m1", "m2", "m3"}, Suggestions(history, docQs))

	history = append(history, models.Message{Role: models.RoleModel})
	require.Equal(t, docQs, Suggestions(history, docQs))

	require.Equal(t, SampleQueries, Suggestions(history, nil))
	require.Equal(t, SampleQueries, Suggestions(nil, nil))
}

func TestSuggestionsReturnsCopy(t *testing.T) {
	got := Suggestions(nil, nil)
	got[0] = "mutated"
	require.NotEqual(t, "mutated", SampleQueries[0])
}
