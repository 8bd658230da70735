package app_test

import (
	"errors"
	"testing"

	"lesson-editor-service/internal/app"
	"lesson-editor-service/internal/domain"
)

func authored(identity, prompt string) domain.QuestionItem {
	return domain.QuestionItem{
		Identity:   identity,
		Provenance: domain.ProvenanceAuthored,
		Kind:       domain.KindMultipleChoice,
		Prompt:     prompt,
		Choices:    []string{"A", "B", "C", "D"},
	}
}

func seedSession(t *testing.T, identities ...string) *app.Session {
	t.Helper()
	session := app.NewSession("lesson-1")
	for i, id := range identities {
		if err := session.InsertAt(i, authored(id, "q "+id)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	return session
}

func identities(session *app.Session) []string {
	items := session.Items()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Identity
	}
	return out
}

func wantOrder(t *testing.T, session *app.Session, want ...string) {
	t.Helper()
	got := identities(session)
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestInsertRemovePreservesSet(t *testing.T) {
	session := seedSession(t, "A", "B", "C")

	if err := session.InsertAt(1, authored("X", "x")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	wantOrder(t, session, "A", "X", "B", "C")

	if err := session.RemoveAt(2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	wantOrder(t, session, "A", "X", "C")
}

func TestInsertAtBounds(t *testing.T) {
	session := seedSession(t, "A")

	if err := session.InsertAt(2, authored("B", "b")); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	if err := session.InsertAt(-1, authored("B", "b")); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	// index == length appends
	if err := session.InsertAt(1, authored("B", "b")); err != nil {
		t.Fatalf("append: %v", err)
	}
	wantOrder(t, session, "A", "B")
}

func TestInsertRejectsDuplicateIdentity(t *testing.T) {
	session := seedSession(t, "A")
	if err := session.InsertAt(1, authored("A", "again")); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected duplicate identity, got %v", err)
	}
	wantOrder(t, session, "A")
}

func TestMoveToExamples(t *testing.T) {
	session := seedSession(t, "A", "B", "C", "D")
	if err := session.MoveTo(0, 2); err != nil {
		t.Fatalf("move: %v", err)
	}
	wantOrder(t, session, "B", "C", "A", "D")

	session = seedSession(t, "A", "B", "C", "D")
	if err := session.MoveTo(3, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	wantOrder(t, session, "D", "A", "B", "C")
}

func TestMoveToSamePositionIsNoop(t *testing.T) {
	session := seedSession(t, "A", "B", "C")
	before := session.Snapshot()

	if err := session.MoveTo(1, 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	after := session.Snapshot()
	if after.Revision != before.Revision {
		t.Fatalf("expected no revision bump, got %d -> %d", before.Revision, after.Revision)
	}
	wantOrder(t, session, "A", "B", "C")
}

func TestMoveToOutOfRange(t *testing.T) {
	session := seedSession(t, "A", "B")
	if err := session.MoveTo(0, 5); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	if err := session.MoveTo(-1, 0); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
}

func TestKindSwitchResetsChoices(t *testing.T) {
	session := app.NewSession("lesson-1")
	session.AddQuestion()
	if err := session.ToggleCorrect(0, 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if err := session.SetKind(0, domain.KindShortAnswer); err != nil {
		t.Fatalf("set kind: %v", err)
	}
	item := session.Items()[0]
	if len(item.Choices) != 0 || len(item.CorrectIndices) != 0 {
		t.Fatalf("expected cleared choices, got %+v", item)
	}

	if err := session.SetKind(0, domain.KindMultipleChoice); err != nil {
		t.Fatalf("set kind back: %v", err)
	}
	item = session.Items()[0]
	if len(item.Choices) != 4 {
		t.Fatalf("expected four blank choices, got %v", item.Choices)
	}
	for _, c := range item.Choices {
		if c != "" {
			t.Fatalf("expected blank choices, got %v", item.Choices)
		}
	}
	if len(item.CorrectIndices) != 0 {
		t.Fatalf("expected no markers, got %v", item.CorrectIndices)
	}
}

func TestRenamingChoiceKeepsMarker(t *testing.T) {
	session := app.NewSession("lesson-1")
	session.AddQuestion()
	for i, text := range []string{"A", "B", "C", "D"} {
		if err := session.SetChoice(0, i, text); err != nil {
			t.Fatalf("set choice: %v", err)
		}
	}
	if err := session.ToggleCorrect(0, 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if err := session.SetChoice(0, 1, "B2"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	item := session.Items()[0]
	if len(item.CorrectIndices) != 1 || item.CorrectIndices[0] != 1 {
		t.Fatalf("expected marker to stay on position 1, got %v", item.CorrectIndices)
	}
	values := item.CorrectValues()
	if len(values) != 1 || values[0] != "B2" {
		t.Fatalf("expected renamed choice to stay correct, got %v", values)
	}
}

func TestRemoveChoiceReindexesMarkers(t *testing.T) {
	session := app.NewSession("lesson-1")
	session.AddQuestion()
	for i, text := range []string{"A", "B", "C", "D"} {
		_ = session.SetChoice(0, i, text)
	}
	_ = session.ToggleCorrect(0, 1)
	_ = session.ToggleCorrect(0, 3)

	if err := session.RemoveChoice(0, 1); err != nil {
		t.Fatalf("remove choice: %v", err)
	}
	item := session.Items()[0]
	if len(item.Choices) != 3 {
		t.Fatalf("expected three choices, got %v", item.Choices)
	}
	// marker on B gone, marker on D shifted from 3 to 2
	if len(item.CorrectIndices) != 1 || item.CorrectIndices[0] != 2 {
		t.Fatalf("expected marker [2], got %v", item.CorrectIndices)
	}
	if values := item.CorrectValues(); len(values) != 1 || values[0] != "D" {
		t.Fatalf("expected D to stay correct, got %v", values)
	}
}

func TestToggleCorrectAddsAndRemoves(t *testing.T) {
	session := app.NewSession("lesson-1")
	session.AddQuestion()

	if err := session.ToggleCorrect(0, 2); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if got := session.Items()[0].CorrectIndices; len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected [2], got %v", got)
	}
	if err := session.ToggleCorrect(0, 2); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if got := session.Items()[0].CorrectIndices; len(got) != 0 {
		t.Fatalf("expected empty markers, got %v", got)
	}

	if err := session.ToggleCorrect(0, 9); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
}

func TestImportedItemsAreImmutable(t *testing.T) {
	session := app.NewSession("lesson-1")
	candidates := []domain.Candidate{{
		SourceID:       "src-1",
		Kind:           domain.KindMultipleChoice,
		Prompt:         "bank question",
		Choices:        []string{"x", "y"},
		CorrectChoices: []string{"y"},
	}}
	if _, err := session.Merge(candidates, []string{"src-1"}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	before := session.Items()[0]
	mutations := map[string]error{
		"setKind":      session.SetKind(0, domain.KindShortAnswer),
		"setPrompt":    session.SetPrompt(0, "changed"),
		"setChoice":    session.SetChoice(0, 0, "changed"),
		"addChoice":    session.AddChoice(0),
		"removeChoice": session.RemoveChoice(0, 0),
		"toggle":       session.ToggleCorrect(0, 0),
	}
	for name, err := range mutations {
		if !errors.Is(err, domain.ErrImmutableItem) {
			t.Fatalf("%s: expected immutable item, got %v", name, err)
		}
	}

	after := session.Items()[0]
	if after.Prompt != before.Prompt || after.Kind != before.Kind {
		t.Fatalf("imported item mutated: %+v", after)
	}
	if len(after.Choices) != len(before.Choices) || after.Choices[0] != before.Choices[0] {
		t.Fatalf("imported choices mutated: %v", after.Choices)
	}

	// Removal is still allowed.
	if err := session.RemoveAt(0); err != nil {
		t.Fatalf("remove imported: %v", err)
	}
	if session.Len() != 0 {
		t.Fatalf("expected empty session")
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	store := newMemorySessions()
	service := app.NewEditorService(store, staticBank(nil), &fakeLessons{})

	if _, err := service.Open(ctxb(), "lesson-1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	ch, cancel, err := service.Subscribe("lesson-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	session, err := service.Session("lesson-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	session.AddQuestion()

	update := <-ch
	if len(update.Items) != 1 {
		t.Fatalf("expected one item in snapshot, got %+v", update.Items)
	}
	if update.Revision == 0 {
		t.Fatalf("expected revision bump")
	}
}
