package domain

import "errors"

var (
	// ErrInvalidIndex is returned when an operation addresses a position
	// outside the current list. Callers working from a fresh snapshot
	// should never see it.
	ErrInvalidIndex = errors.New("index out of range")
	// ErrImmutableItem is returned on any attempt to edit the content of an
	// imported question. Imported questions are read-only; edit them at the
	// source bank instead.
	ErrImmutableItem = errors.New("imported questions are read-only")
	// ErrNothingNewToImport is returned when every selected candidate is
	// already present in the lesson.
	ErrNothingNewToImport = errors.New("nothing new to import")
	// ErrSessionNotFound is returned when no editing session is open for
	// the lesson.
	ErrSessionNotFound = errors.New("editing session not found")
	// ErrLessonNotFound indicates the lesson record could not be loaded.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrCandidateNotFound indicates a selected source id was absent from
	// the candidate set handed to the merge.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrDuplicateIdentity reports an insert whose identity is already
	// present in the collection.
	ErrDuplicateIdentity = errors.New("item identity already present")
)
