package memory

import (
	"context"
	"errors"
	"testing"

	"lesson-editor-service/internal/domain"
)

func TestLessonStoreResolvesImportedOnLoad(t *testing.T) {
	bank := NewStaticBankLoader(sampleCandidates())
	store := NewLessonStore(bank)

	draft := domain.LessonDraft{
		Authored: []domain.AuthoredPayload{
			{Kind: domain.KindShortAnswer, Prompt: "authored"},
		},
		ImportedSourceIDs: []string{"src-2", "src-1"},
	}
	if err := store.Save(context.Background(), "lesson-1", draft); err != nil {
		t.Fatalf("save: %v", err)
	}

	record, err := store.Load(context.Background(), "lesson-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(record.AuthoredQuestions) != 1 {
		t.Fatalf("expected authored question, got %+v", record.AuthoredQuestions)
	}
	if len(record.ImportedQuestions) != 2 {
		t.Fatalf("expected resolved imports, got %+v", record.ImportedQuestions)
	}
	// Reference order preserved, content resolved from the bank.
	if record.ImportedQuestions[0].SourceID != "src-2" || record.ImportedQuestions[1].SourceID != "src-1" {
		t.Fatalf("reference order lost: %+v", record.ImportedQuestions)
	}
	if record.ImportedQuestions[1].Prompt == "" {
		t.Fatalf("expected bank content, got %+v", record.ImportedQuestions[1])
	}
}

func TestLessonStoreDropsVanishedReferences(t *testing.T) {
	bank := NewStaticBankLoader(sampleCandidates())
	store := NewLessonStore(bank)

	draft := domain.LessonDraft{ImportedSourceIDs: []string{"src-1", "src-gone"}}
	if err := store.Save(context.Background(), "lesson-1", draft); err != nil {
		t.Fatalf("save: %v", err)
	}

	record, err := store.Load(context.Background(), "lesson-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(record.ImportedQuestions) != 1 || record.ImportedQuestions[0].SourceID != "src-1" {
		t.Fatalf("expected vanished reference dropped, got %+v", record.ImportedQuestions)
	}
}

func TestLessonStoreUnknownLesson(t *testing.T) {
	store := NewLessonStore(NewStaticBankLoader(nil))
	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, domain.ErrLessonNotFound) {
		t.Fatalf("expected lesson not found, got %v", err)
	}
}
