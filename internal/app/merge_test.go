package app_test

import (
	"errors"
	"testing"

	"lesson-editor-service/internal/app"
	"lesson-editor-service/internal/domain"
)

func bankCandidates() []domain.Candidate {
	return []domain.Candidate{
		{SourceID: "src-1", Kind: domain.KindMultipleChoice, Prompt: "one", Choices: []string{"a", "b"}, CorrectChoices: []string{"a"}},
		{SourceID: "src-2", Kind: domain.KindShortAnswer, Prompt: "two"},
		{SourceID: "src-3", Kind: domain.KindMultipleChoice, Prompt: "three", Choices: []string{"x", "y"}, CorrectChoices: []string{"y"}},
	}
}

func TestMergeAppendsAfterExisting(t *testing.T) {
	session := seedSession(t, "A", "B")

	count, err := session.Merge(bankCandidates(), []string{"src-1", "src-2"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 appended, got %d", count)
	}

	items := session.Items()
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}
	if items[0].Identity != "A" || items[1].Identity != "B" {
		t.Fatalf("existing items reordered: %v", identities(session))
	}
	if items[2].SourceID != "src-1" || items[3].SourceID != "src-2" {
		t.Fatalf("expected selection order preserved, got %s then %s", items[2].SourceID, items[3].SourceID)
	}
	for _, item := range items[2:] {
		if !item.Imported() {
			t.Fatalf("expected imported provenance, got %s", item.Provenance)
		}
		if item.Identity == "" || app.IsLocalIdentity(item.Identity) {
			t.Fatalf("expected derived identity, got %q", item.Identity)
		}
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	session := app.NewSession("lesson-1")

	if _, err := session.Merge(bankCandidates(), []string{"src-1"}); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	_, err := session.Merge(bankCandidates(), []string{"src-1"})
	if !errors.Is(err, domain.ErrNothingNewToImport) {
		t.Fatalf("expected nothing new, got %v", err)
	}

	withSrc1 := 0
	for _, item := range session.Items() {
		if item.SourceID == "src-1" {
			withSrc1++
		}
	}
	if withSrc1 != 1 {
		t.Fatalf("expected one src-1 item, got %d", withSrc1)
	}
}

func TestMergeSkipsAlreadyImportedButAddsNew(t *testing.T) {
	session := app.NewSession("lesson-1")
	if _, err := session.Merge(bankCandidates(), []string{"src-1"}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// Dialog reopens with src-1 pre-selected; user adds src-3.
	count, err := session.Merge(bankCandidates(), []string{"src-1", "src-3"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 appended, got %d", count)
	}
	ids := session.ImportedSourceIDs()
	if len(ids) != 2 || ids[0] != "src-1" || ids[1] != "src-3" {
		t.Fatalf("expected [src-1 src-3], got %v", ids)
	}
}

func TestMergeDuplicateSelectionCollapses(t *testing.T) {
	session := app.NewSession("lesson-1")
	count, err := session.Merge(bankCandidates(), []string{"src-2", "src-2"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if count != 1 || session.Len() != 1 {
		t.Fatalf("expected single item, got count=%d len=%d", count, session.Len())
	}
}

func TestMergeUnknownCandidateLeavesStoreUntouched(t *testing.T) {
	session := seedSession(t, "A")
	_, err := session.Merge(bankCandidates(), []string{"src-1", "src-404"})
	if !errors.Is(err, domain.ErrCandidateNotFound) {
		t.Fatalf("expected candidate not found, got %v", err)
	}
	if session.Len() != 1 {
		t.Fatalf("expected partial merge to be rejected, got %d items", session.Len())
	}
}

func TestMergeCopiesCandidateContent(t *testing.T) {
	session := app.NewSession("lesson-1")
	if _, err := session.Merge(bankCandidates(), []string{"src-3"}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	item := session.Items()[0]
	if item.Prompt != "three" || item.Kind != domain.KindMultipleChoice {
		t.Fatalf("content not copied: %+v", item)
	}
	if values := item.CorrectValues(); len(values) != 1 || values[0] != "y" {
		t.Fatalf("expected correct choice y, got %v", values)
	}
}
