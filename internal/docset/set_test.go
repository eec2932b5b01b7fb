package docset

import (
	"testing"
	"time"

	"smartclaim/internal/blob"
	"smartclaim/internal/models"
	"smartclaim/internal/util"

	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	changed []string
	removed []string
}

func (r *recordingObserver) DocumentChanged(doc models.Document) { r.changed = append(r.changed, doc.ID) }
func (r *recordingObserver) DocumentRemoved(id string)           { r.removed = append(r.removed, id) }

func doc(id, name string) models.Document {
	return models.Document{ID: id, Name: name, FullText: "text of " + name}
}

func TestModeDerivation(t *testing.T) {
	s := New(nil, nil)
	require.Equal(t, models.ModeGeneral, s.Mode())
	require.NoError(t, s.Add(doc("a", "a.pdf")))
	require.Equal(t, models.ModeMulti, s.Mode())
	require.NoError(t, s.SetActive("a"))
	require.Equal(t, models.ModeSingle, s.Mode())
	require.Equal(t, models.ModeSingle, s.Snapshot().Mode())
}

func TestRemoveReassignsActiveToLast(t *testing.T) {
	s := New(nil, nil)
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, s.Add(doc(id, id+".pdf")))
	}
	require.NoError(t, s.SetActive("B"))

	require.NoError(t, s.Remove("B"))
	require.Equal(t, "C", s.ActiveID())

	require.NoError(t, s.Remove("C"))
	require.Equal(t, "A", s.ActiveID())

	require.NoError(t, s.Remove("A"))
	require.Equal(t, "", s.ActiveID())
	require.Equal(t, models.ModeGeneral, s.Mode())
}

func TestRemoveInactiveKeepsSelection(t *testing.T) {
	s := New(nil, nil)
	require.NoError(t, s.Add(doc("A", "a.pdf")))
	require.NoError(t, s.Add(doc("B", "b.pdf")))
	require.NoError(t, s.Remove("A"))
	require.Equal(t, "", s.ActiveID())
	require.Equal(t, models.ModeMulti, s.Mode())
}

func TestRemoveReleasesHandleOnce(t *testing.T) {
	store := blob.NewStore()
	h := store.Put("a.pdf", []byte("%PDF"))
	obs := &recordingObserver{}
	s := New(store, obs)
	d := doc("A", "a.pdf")
	d.FileHandle = h
	require.NoError(t, s.Add(d))

	require.NoError(t, s.Remove("A"))
	require.Equal(t, 0, store.Len())
	require.ErrorIs(t, s.Remove("A"), util.ErrNotFound)
	require.Equal(t, []string{"A"}, obs.changed)
	require.Equal(t, []string{"A"}, obs.removed)
}

func TestAddRejectsDuplicateName(t *testing.T) {
	s := New(nil, nil)
	require.NoError(t, s.Add(doc("A", "policy.pdf")))
	require.ErrorIs(t, s.Add(doc("B", "policy.pdf")), util.ErrDuplicateName)
	require.Equal(t, 1, s.Len())
}

func TestKeepBothRenamesNewDocument(t *testing.T) {
	s := New(nil, nil)
	require.NoError(t, s.Add(doc("A", "policy.pdf")))

	now := time.Date(2026, 5, 1, 14, 5, 0, 0, time.Local)
	d := doc("B", "policy.pdf")
	d.Name = UniqueName(d.Name, s.HasName, now)
	require.NoError(t, s.Add(d))

	snap := s.Snapshot()
	require.Len(t, snap.Documents, 2)
	require.Equal(t, "policy.pdf", snap.Documents[0].Name)
	require.Equal(t, "policy.pdf (14:05)", snap.Documents[1].Name)
}

func TestUniqueNameFallsBackToCounter(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.Local)
	taken := map[string]bool{"x.pdf (09:30)": true, "x.pdf (09:30 #2)": true}
	got := UniqueName("x.pdf", func(n string) bool { return taken[n] }, now)
	require.Equal(t, "x.pdf (09:30 #3)", got)
}

func TestSetActiveUnknownIsNotFound(t *testing.T) {
	s := New(nil, nil)
	require.ErrorIs(t, s.SetActive("nope"), util.ErrNotFound)
	require.NoError(t, s.SetActive(""))
}

func TestUpdateAndAppendMessages(t *testing.T) {
	obs := &recordingObserver{}
	s := New(nil, obs)
	require.NoError(t, s.Add(doc("A", "a.pdf")))
	require.NoError(t, s.AppendMessages("A", models.Message{ID: "m1", Role: models.RoleUser, Text: "hi"}))
	require.NoError(t, s.Update("A", func(d *models.Document) {
		d.Summary = "summary"
		d.Name = "ignored.pdf"
	}))
	got, ok := s.Get("A")
	require.True(t, ok)
	require.Len(t, got.ChatHistory, 1)
	require.Equal(t, "summary", got.Summary)
	require.Equal(t, "a.pdf", got.Name)
	require.Len(t, obs.changed, 3)
	require.ErrorIs(t, s.AppendMessages("B"), util.ErrNotFound)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(nil, nil)
	require.NoError(t, s.Add(doc("A", "a.pdf")))
	snap := s.Snapshot()
	snap.Documents[0].ChatHistory = append(snap.Documents[0].ChatHistory, models.Message{ID: "x"})
	got, _ := s.Get("A")
	require.Empty(t, got.ChatHistory)
}

func TestMergeAddsUnseenDocuments(t *testing.T) {
	obs := &recordingObserver{}
	s := New(nil, obs)
	require.NoError(t, s.Add(doc("A", "a.pdf")))
	rename := func(name string, exists func(string) bool) string {
		return UniqueName(name, exists, time.Date(2026, 1, 1, 8, 0, 0, 0, time.Local))
	}
	added := s.Merge([]models.Document{doc("A", "a.pdf"), doc("B", "a.pdf"), doc("C", "c.pdf")}, rename)
	require.Equal(t, 2, added)
	snap := s.Snapshot()
	require.Equal(t, "a.pdf (08:00)", snap.Documents[1].Name)
	require.Equal(t, []string{"A"}, obs.changed)
}

func TestCloseReleasesAllHandles(t *testing.T) {
	store := blob.NewStore()
	s := New(store, nil)
	a, b := doc("A", "a.pdf"), doc("B", "b.pdf")
	a.FileHandle = store.Put("a.pdf", nil)
	b.FileHandle = store.Put("b.pdf", nil)
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))
	s.Close()
	require.Equal(t, 0, store.Len())
	s.Close()
}
