package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeriveMode(t *testing.T) {
	require.Equal(t, ModeGeneral, DeriveMode("", 0))
	require.Equal(t, ModeMulti, DeriveMode("", 2))
	require.Equal(t, ModeSingle, DeriveMode("doc-1", 2))
}

func TestPolicyStatusAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, PolicyExpired, PolicyStatusAt(CustomerPolicy{EndDate: now.AddDate(0, 0, -1)}, now))
	require.Equal(t, PolicyExpiringSoon, PolicyStatusAt(CustomerPolicy{EndDate: now.AddDate(0, 0, 30)}, now))
	require.Equal(t, PolicyActive, PolicyStatusAt(CustomerPolicy{EndDate: now.AddDate(0, 0, 31)}, now))
	require.Equal(t, PolicyActive, PolicyStatusAt(CustomerPolicy{}, now))
}

func TestDocumentCloneIsIndependent(t *testing.T) {
	d := Document{ID: "a", Pages: []Page{{PageNumber: 1, Content: "x"}}, SuggestedQuestions: []string{"q"}}
	c := d.Clone()
	c.Pages[0].Content = "y"
	c.SuggestedQuestions[0] = "z"
	require.Equal(t, "x", d.Pages[0].Content)
	require.Equal(t, "q", d.SuggestedQuestions[0])
	require.NotNil(t, c.ChatHistory)
}
