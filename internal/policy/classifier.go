// Package policy decides whether extracted text plausibly belongs to an
// insurance policy before it is accepted into a document set.
package policy

import (
	"strings"

	"smartclaim/internal/util"
)

const (
	DefaultWindow      = 5000
	minGeneralMatches  = 1
	minSpecificMatches = 3
)

// A concept matches when any of its aliases occurs in the inspected text.
type concept struct {
	name    string
	aliases []string
}

var generalTier = []concept{
	{"insurance", []string{"保險", "insurance"}},
	{"policy", []string{"保單", "policy"}},
}

var specificTier = []concept{
	{"insured party", []string{"被保險人", "insured party", "the insured"}},
	{"policyholder", []string{"要保人", "policyholder", "policy holder"}},
	{"sum insured", []string{"保險金額", "sum insured", "sum assured"}},
	{"premium", []string{"保費", "premium"}},
	{"beneficiary", []string{"受益人", "beneficiary"}},
	{"insurance contract", []string{"保險契約", "insurance contract"}},
	{"coverage period", []string{"保險期間", "coverage period", "period of insurance"}},
	{"payout", []string{"給付", "payout", "benefit payment"}},
	{"claim", []string{"理賠", "claim"}},
	{"exclusion", []string{"除外責任", "exclusion"}},
}

type Classification struct {
	Likely   bool     `json:"likely_policy"`
	General  []string `json:"general_matches"`
	Specific []string `json:"specific_matches"`
}

type Classifier struct {
	window int
}

// NewClassifier inspects the first window runes of a document; a
// non-positive window falls back to DefaultWindow.
func NewClassifier(window int) *Classifier {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Classifier{window: window}
}

func (c *Classifier) Classify(fullText string) Classification {
	head, _ := util.TruncateRunes(fullText, c.window)
	head = strings.ToLower(head)
	// general keywords only count outside specific phrases, so "policy"
	// inside "policyholder" or 保險 inside 被保險人 is not a general match
	out := Classification{
		Specific: matchTier(head, specificTier),
		General:  matchTier(maskTier(head, specificTier), generalTier),
	}
	out.Likely = len(out.General) >= minGeneralMatches && len(out.Specific) >= minSpecificMatches
	return out
}

func (c *Classifier) LooksLikePolicy(fullText string) bool {
	return c.Classify(fullText).Likely
}

func matchTier(lower string, tier []concept) []string {
	out := make([]string, 0, len(tier))
	for _, k := range tier {
		for _, a := range k.aliases {
			if strings.Contains(lower, a) {
				out = append(out, k.name)
				break
			}
		}
	}
	return out
}

func maskTier(lower string, tier []concept) string {
	for _, k := range tier {
		for _, a := range k.aliases {
			lower = strings.ReplaceAll(lower, a, " ")
		}
	}
	return lower
}
