package app

import "lesson-editor-service/internal/domain"

// Merge appends the newly selected candidates to the end of the list.
//
// The delta is selected minus the source ids already imported into this
// session, in selection order. Re-selecting an already imported candidate is
// a no-op, so the operation is idempotent against the growing imported set.
// The whole merge either applies or leaves the list untouched: unknown
// source ids are rejected before anything is appended.
func (s *Session) Merge(candidates []domain.Candidate, selected []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	already := make(map[string]bool)
	for _, item := range s.items {
		if item.Imported() {
			already[item.SourceID] = true
		}
	}

	bysource := make(map[string]domain.Candidate, len(candidates))
	for _, c := range candidates {
		bysource[c.SourceID] = c
	}

	var delta []domain.Candidate
	seen := make(map[string]bool, len(selected))
	for _, id := range selected {
		if already[id] || seen[id] {
			continue
		}
		seen[id] = true
		c, ok := bysource[id]
		if !ok {
			return 0, domain.ErrCandidateNotFound
		}
		delta = append(delta, c)
	}
	if len(delta) == 0 {
		return 0, domain.ErrNothingNewToImport
	}

	for _, c := range delta {
		s.items = append(s.items, s.candidateItemLocked(c))
	}
	s.bumpLocked()
	return len(delta), nil
}

// candidateItemLocked copies candidate content into a read-only list item.
func (s *Session) candidateItemLocked(c domain.Candidate) domain.QuestionItem {
	return domain.QuestionItem{
		Identity:       ImportIdentity(s.namespace, c.SourceID),
		Provenance:     domain.ProvenanceImported,
		Kind:           c.Kind,
		Prompt:         c.Prompt,
		Choices:        append([]string(nil), c.Choices...),
		CorrectIndices: correctIndices(c.Choices, c.CorrectChoices),
		SourceID:       c.SourceID,
	}
}
