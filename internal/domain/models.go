package domain

// Provenance distinguishes locally authored questions from questions copied
// by reference out of the shared question bank.
type Provenance string

const (
	// ProvenanceAuthored marks a question written inside the lesson editor.
	ProvenanceAuthored Provenance = "authored"
	// ProvenanceImported marks a read-only question pulled from the bank.
	ProvenanceImported Provenance = "imported"
)

// Kind identifies the question shape.
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindShortAnswer    Kind = "short_answer"
)

// QuestionItem is a single entry in a lesson's ordered question list.
// Correctness is tracked by choice position, not by choice text, so renaming
// a choice keeps its marker and duplicate texts stay independently markable.
type QuestionItem struct {
	Identity       string     `json:"identity"`
	Provenance     Provenance `json:"provenance"`
	Kind           Kind       `json:"kind"`
	Prompt         string     `json:"prompt"`
	Choices        []string   `json:"choices,omitempty"`
	CorrectIndices []int      `json:"correctIndices,omitempty"`
	SourceID       string     `json:"sourceId,omitempty"`
}

// Imported reports whether the item is read-only bank content.
func (q QuestionItem) Imported() bool {
	return q.Provenance == ProvenanceImported
}

// CorrectValues resolves the position markers back into choice texts, in
// choice order. This is the shape the backend persists.
func (q QuestionItem) CorrectValues() []string {
	if len(q.CorrectIndices) == 0 {
		return nil
	}
	marked := make(map[int]bool, len(q.CorrectIndices))
	for _, i := range q.CorrectIndices {
		marked[i] = true
	}
	values := make([]string, 0, len(q.CorrectIndices))
	for i, choice := range q.Choices {
		if marked[i] {
			values = append(values, choice)
		}
	}
	return values
}

// LessonSnapshot is a render-ready view of the question list at a point in
// time. Revision increases by one per applied mutation.
type LessonSnapshot struct {
	LessonID string         `json:"lessonId"`
	Items    []QuestionItem `json:"items"`
	Revision uint64         `json:"revision"`
}

// Candidate is a question-bank entry eligible for import into a lesson.
type Candidate struct {
	SourceID       string   `json:"sourceId"`
	Kind           Kind     `json:"kind"`
	Prompt         string   `json:"prompt"`
	Choices        []string `json:"choices,omitempty"`
	CorrectChoices []string `json:"correctChoices,omitempty"`
}

// BankQuery carries the paging/search parameters for a bank search.
// Parameters are opaque pass-through to the backing store.
type BankQuery struct {
	Kind     Kind   `json:"kind,omitempty"`
	Text     string `json:"text,omitempty"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// CandidatePage is one page of search results.
type CandidatePage struct {
	Candidates []Candidate `json:"candidates"`
	Page       int         `json:"page"`
}

// AuthoredPayload is the backend shape of one authored question on save.
// Identity is empty for questions the backend has not issued an id for yet.
type AuthoredPayload struct {
	Identity       string   `json:"identity,omitempty"`
	Kind           Kind     `json:"kind"`
	Prompt         string   `json:"prompt"`
	Choices        []string `json:"choices,omitempty"`
	CorrectChoices []string `json:"correctChoices,omitempty"`
}

// LessonDraft is what the editor submits to lesson persistence. Imported
// questions travel as bare source ids; the backend re-resolves their content
// from the bank at read time, so bank-side drift propagates to the lesson.
type LessonDraft struct {
	Authored          []AuthoredPayload `json:"authored"`
	ImportedSourceIDs []string          `json:"importedSourceIds"`
}

// LessonRecord is the hydration shape a previously saved lesson arrives in.
// The imported side carries full resolved content, not bare ids, because the
// backend resolves references before returning the lesson.
type LessonRecord struct {
	LessonID          string            `json:"lessonId"`
	AuthoredQuestions []AuthoredPayload `json:"authoredQuestions"`
	ImportedQuestions []Candidate       `json:"importedQuestions"`
}
