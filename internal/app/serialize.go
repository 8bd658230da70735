package app

import "lesson-editor-service/internal/domain"

// Serialize splits the unified list into the two shapes lesson persistence
// expects: authored questions with content, imported questions as bare
// source ids. Each partition keeps the order its members occupy in the
// unified list; the interleaving between partitions is not transmitted.
//
// Temporary local identities are stripped from authored questions so the
// backend assigns permanent ids on first save. Imported content is never
// emitted: the backend re-resolves it from the bank at read time.
func (s *Session) Serialize() domain.LessonDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft := domain.LessonDraft{
		Authored:          []domain.AuthoredPayload{},
		ImportedSourceIDs: []string{},
	}
	for _, item := range s.items {
		if item.Imported() {
			draft.ImportedSourceIDs = append(draft.ImportedSourceIDs, item.SourceID)
			continue
		}
		identity := item.Identity
		if IsLocalIdentity(identity) {
			identity = ""
		}
		draft.Authored = append(draft.Authored, domain.AuthoredPayload{
			Identity:       identity,
			Kind:           item.Kind,
			Prompt:         item.Prompt,
			Choices:        append([]string(nil), item.Choices...),
			CorrectChoices: item.CorrectValues(),
		})
	}
	return draft
}
