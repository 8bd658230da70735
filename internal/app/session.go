package app

import (
	"sync"
	"time"

	"lesson-editor-service/internal/domain"

	"github.com/google/uuid"
)

// Session holds the ordered question list for one lesson being edited.
// It is created when the editing screen opens and dropped when it closes;
// there is no ambient shared instance.
//
// Every successful mutation bumps the revision and fans the new snapshot out
// to subscribers synchronously. Notification is channel-based, so renderers
// cannot re-enter mutation methods from inside the notify path.
type Session struct {
	lessonID  string
	createdAt time.Time
	now       func() time.Time

	// namespace salts import identity derivations for this session.
	namespace uuid.UUID

	mu          sync.RWMutex
	items       []domain.QuestionItem
	revision    uint64
	localSeq    int
	searchSeq   uint64
	subscribers map[chan domain.LessonSnapshot]struct{}
}

func newSession(lessonID string) *Session {
	return newSessionWithClock(lessonID, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(lessonID string, now func() time.Time) *Session {
	return &Session{
		lessonID:    lessonID,
		createdAt:   now(),
		now:         now,
		namespace:   uuid.New(),
		subscribers: make(map[chan domain.LessonSnapshot]struct{}),
	}
}

// LessonID returns the lesson this session edits.
func (s *Session) LessonID() string {
	return s.lessonID
}

// Hydrate replaces the session content with a previously saved lesson:
// authored questions first, then imported ones, each partition in its
// persisted order. Cross-partition interleaving is not transmitted by the
// persisted shape, so it cannot be restored here.
func (s *Session) Hydrate(record domain.LessonRecord) domain.LessonSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.QuestionItem, 0, len(record.AuthoredQuestions)+len(record.ImportedQuestions))
	for _, q := range record.AuthoredQuestions {
		identity := q.Identity
		if identity == "" {
			s.localSeq++
			identity = LocalIdentity(s.localSeq)
		}
		items = append(items, domain.QuestionItem{
			Identity:       identity,
			Provenance:     domain.ProvenanceAuthored,
			Kind:           q.Kind,
			Prompt:         q.Prompt,
			Choices:        append([]string(nil), q.Choices...),
			CorrectIndices: correctIndices(q.Choices, q.CorrectChoices),
		})
	}
	for _, c := range record.ImportedQuestions {
		items = append(items, s.candidateItemLocked(c))
	}
	s.items = items
	return s.bumpLocked()
}

// AddQuestion appends a blank authored question. New questions start as
// multiple choice with four empty choices and nothing marked correct.
func (s *Session) AddQuestion() domain.QuestionItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.localSeq++
	item := domain.QuestionItem{
		Identity:   LocalIdentity(s.localSeq),
		Provenance: domain.ProvenanceAuthored,
		Kind:       domain.KindMultipleChoice,
		Choices:    make([]string, blankChoiceCount),
	}
	s.items = append(s.items, item)
	s.bumpLocked()
	return item
}

// InsertQuestionAt creates a blank authored question at index.
func (s *Session) InsertQuestionAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index > len(s.items) {
		return domain.ErrInvalidIndex
	}
	s.localSeq++
	item := domain.QuestionItem{
		Identity:   LocalIdentity(s.localSeq),
		Provenance: domain.ProvenanceAuthored,
		Kind:       domain.KindMultipleChoice,
		Choices:    make([]string, blankChoiceCount),
	}
	s.items = append(s.items, domain.QuestionItem{})
	copy(s.items[index+1:], s.items[index:])
	s.items[index] = item
	s.bumpLocked()
	return nil
}

// InsertAt places item at index. Index may equal the current length
// (append). Identities must be unique within the collection.
func (s *Session) InsertAt(index int, item domain.QuestionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index > len(s.items) {
		return domain.ErrInvalidIndex
	}
	for _, existing := range s.items {
		if existing.Identity == item.Identity {
			return domain.ErrDuplicateIdentity
		}
	}
	s.items = append(s.items, domain.QuestionItem{})
	copy(s.items[index+1:], s.items[index:])
	s.items[index] = item
	s.bumpLocked()
	return nil
}

// RemoveAt deletes the item at index. Removal is the only operation
// permitted on imported items.
func (s *Session) RemoveAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return domain.ErrInvalidIndex
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	s.bumpLocked()
	return nil
}

// MoveTo relocates the item at from to position to, preserving the relative
// order of everything else. A same-position move leaves the list untouched
// and does not notify.
func (s *Session) MoveTo(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from < 0 || from >= len(s.items) || to < 0 || to >= len(s.items) {
		return domain.ErrInvalidIndex
	}
	if from == to {
		return nil
	}
	item := s.items[from]
	if from < to {
		copy(s.items[from:], s.items[from+1:to+1])
	} else {
		copy(s.items[to+1:], s.items[to:from])
	}
	s.items[to] = item
	s.bumpLocked()
	return nil
}

// SetKind changes the question shape. Switching away from multiple choice
// clears choices and markers; switching to it seeds four blank choices.
func (s *Session) SetKind(index int, kind domain.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.editableLocked(index)
	if err != nil {
		return err
	}
	if item.Kind == kind {
		return nil
	}
	item.Kind = kind
	if kind == domain.KindMultipleChoice {
		item.Choices = make([]string, blankChoiceCount)
		item.CorrectIndices = nil
	} else {
		item.Choices = nil
		item.CorrectIndices = nil
	}
	s.bumpLocked()
	return nil
}

// SetPrompt updates the prompt text of an authored question.
func (s *Session) SetPrompt(index int, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.editableLocked(index)
	if err != nil {
		return err
	}
	item.Prompt = prompt
	s.bumpLocked()
	return nil
}

// SetChoice renames one choice. Correctness markers track positions, so a
// marked choice stays marked through the rename.
func (s *Session) SetChoice(index, choice int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.editableLocked(index)
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(item.Choices) {
		return domain.ErrInvalidIndex
	}
	item.Choices[choice] = text
	s.bumpLocked()
	return nil
}

// AddChoice appends a blank choice to an authored multiple-choice question.
func (s *Session) AddChoice(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.editableLocked(index)
	if err != nil {
		return err
	}
	item.Choices = append(item.Choices, "")
	s.bumpLocked()
	return nil
}

// RemoveChoice drops one choice and reindexes the correctness markers:
// the removed position loses its marker, later positions shift down.
func (s *Session) RemoveChoice(index, choice int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.editableLocked(index)
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(item.Choices) {
		return domain.ErrInvalidIndex
	}
	item.Choices = append(item.Choices[:choice], item.Choices[choice+1:]...)
	kept := item.CorrectIndices[:0]
	for _, idx := range item.CorrectIndices {
		switch {
		case idx == choice:
		case idx > choice:
			kept = append(kept, idx-1)
		default:
			kept = append(kept, idx)
		}
	}
	item.CorrectIndices = kept
	if len(item.CorrectIndices) == 0 {
		item.CorrectIndices = nil
	}
	s.bumpLocked()
	return nil
}

// ToggleCorrect flips the correctness marker on one choice position.
func (s *Session) ToggleCorrect(index, choice int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.editableLocked(index)
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(item.Choices) {
		return domain.ErrInvalidIndex
	}
	for i, idx := range item.CorrectIndices {
		if idx == choice {
			item.CorrectIndices = append(item.CorrectIndices[:i], item.CorrectIndices[i+1:]...)
			if len(item.CorrectIndices) == 0 {
				item.CorrectIndices = nil
			}
			s.bumpLocked()
			return nil
		}
	}
	item.CorrectIndices = insertSorted(item.CorrectIndices, choice)
	s.bumpLocked()
	return nil
}

// Items returns a copy of the current list in order.
func (s *Session) Items() []domain.QuestionItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsLocked()
}

// Snapshot returns the current render view.
func (s *Session) Snapshot() domain.LessonSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len reports the number of questions in the list.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ImportedSourceIDs lists the source ids of every imported item, in list
// order. This set seeds the import dialog's pre-selection and feeds the
// merge delta.
func (s *Session) ImportedSourceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, item := range s.items {
		if item.Imported() {
			ids = append(ids, item.SourceID)
		}
	}
	return ids
}

// BeginSearch issues a new bank-search sequence number. Responses are only
// accepted for the latest issued number; a superseded in-flight search is
// dropped when it resolves.
func (s *Session) BeginSearch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchSeq++
	return s.searchSeq
}

// AcceptSearch reports whether a response tagged with seq is still current.
func (s *Session) AcceptSearch(seq uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return seq == s.searchSeq
}

func (s *Session) subscribe() (<-chan domain.LessonSnapshot, func()) {
	ch := make(chan domain.LessonSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// editableLocked resolves index to an item that may be content-edited.
// Imported items fail the provenance check before any mutation happens.
func (s *Session) editableLocked(index int) (*domain.QuestionItem, error) {
	if index < 0 || index >= len(s.items) {
		return nil, domain.ErrInvalidIndex
	}
	item := &s.items[index]
	if item.Imported() {
		return nil, domain.ErrImmutableItem
	}
	return item, nil
}

// bumpLocked advances the revision and broadcasts the new snapshot to every
// subscriber without blocking on slow ones.
func (s *Session) bumpLocked() domain.LessonSnapshot {
	s.revision++
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.LessonSnapshot {
	return domain.LessonSnapshot{
		LessonID: s.lessonID,
		Items:    s.itemsLocked(),
		Revision: s.revision,
	}
}

func (s *Session) itemsLocked() []domain.QuestionItem {
	items := make([]domain.QuestionItem, len(s.items))
	for i, item := range s.items {
		items[i] = item
		items[i].Choices = append([]string(nil), item.Choices...)
		items[i].CorrectIndices = append([]int(nil), item.CorrectIndices...)
	}
	return items
}

const blankChoiceCount = 4

func insertSorted(indices []int, value int) []int {
	at := len(indices)
	for i, idx := range indices {
		if idx > value {
			at = i
			break
		}
	}
	indices = append(indices, 0)
	copy(indices[at+1:], indices[at:])
	indices[at] = value
	return indices
}

// correctIndices maps persisted correct-choice values back onto positions.
// Each value claims the first unclaimed matching choice, so duplicated
// texts resolve deterministically.
func correctIndices(choices, correct []string) []int {
	if len(correct) == 0 {
		return nil
	}
	claimed := make(map[int]bool, len(correct))
	var indices []int
	for _, value := range correct {
		for i, choice := range choices {
			if choice == value && !claimed[i] {
				claimed[i] = true
				indices = insertSorted(indices, i)
				break
			}
		}
	}
	return indices
}
