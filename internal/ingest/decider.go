package ingest

import (
	"context"
	"fmt"
	"strings"

	"smartclaim/internal/policy"
)

type DuplicateAction string

const (
	DuplicateReplace  DuplicateAction = "replace"
	DuplicateKeepBoth DuplicateAction = "keep_both"
	DuplicateSkip     DuplicateAction = "skip"
)

// ParseDuplicateAction accepts the wire names; "" means keep both.
func ParseDuplicateAction(s string) (DuplicateAction, error) {
	switch DuplicateAction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateKeepBoth, "keep-both", "rename":
		return DuplicateKeepBoth, nil
	case DuplicateReplace:
		return DuplicateReplace, nil
	case DuplicateSkip:
		return DuplicateSkip, nil
	default:
		return "", fmt.Errorf("unknown duplicate action %q", s)
	}
}

// Decider answers the two questions a file can raise on its way in. An
// interactive caller asks the user; headless callers answer up front.
type Decider interface {
	// Override is asked about a file the classifier rejected; true stores it anyway.
	Override(ctx context.Context, name string, c policy.Classification) (bool, error)
	// Duplicate is asked when an accepted file's name is already taken.
	Duplicate(ctx context.Context, name string) (DuplicateAction, error)
}

// StaticDecider gives the same answer for every file.
type StaticDecider struct {
	ForceAccept bool
	OnDuplicate DuplicateAction
}

func (d StaticDecider) Override(ctx context.Context, name string, c policy.Classification) (bool, error) {
	return d.ForceAccept, nil
}

func (d StaticDecider) Duplicate(ctx context.Context, name string) (DuplicateAction, error) {
	if d.OnDuplicate == "" {
		return DuplicateKeepBoth, nil
	}
	return d.OnDuplicate, nil
}

// OverrideSet force-accepts the named files only.
type OverrideSet struct {
	Accept      map[string]bool
	OnDuplicate DuplicateAction
}

func (d OverrideSet) Override(ctx context.Context, name string, c policy.Classification) (bool, error) {
	return d.Accept[name], nil
}

func (d OverrideSet) Duplicate(ctx context.Context, name string) (DuplicateAction, error) {
	return StaticDecider{OnDuplicate: d.OnDuplicate}.Duplicate(ctx, name)
}
