package advice

import "smartclaim/internal/models"

// SampleQueries are shown when nothing more specific is available.
var SampleQueries = []string{
	"我發生車禍骨折了，有哪些保單可以理賠？",
	"我因為手術住院住了3天，可以申請多少理賠金？",
	"申請車禍理賠需要準備哪些文件？",
}

// Suggestions picks the follow-up questions to display: the latest model
// message's suggestions, then the active document's, then SampleQueries.
func Suggestions(history []models.Message, documentSuggestions []string) []string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != models.RoleModel {
			continue
		}
		if len(history[i].SuggestedQuestions) > 0 {
			return append([]string{}, history[i].SuggestedQuestions...)
		}
		break
	}
	if len(documentSuggestions) > 0 {
		return append([]string{}, documentSuggestions...)
	}
	return append([]string{}, SampleQueries...)
}
