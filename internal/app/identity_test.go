package app

import (
	"testing"

	"github.com/google/uuid"
)

func TestImportIdentityIsDeterministicPerNamespace(t *testing.T) {
	ns := uuid.New()
	a := ImportIdentity(ns, "src-1")
	b := ImportIdentity(ns, "src-1")
	if a != b {
		t.Fatalf("expected stable derivation, got %s vs %s", a, b)
	}
	if ImportIdentity(ns, "src-2") == a {
		t.Fatalf("expected distinct ids for distinct sources")
	}
	if ImportIdentity(uuid.New(), "src-1") == a {
		t.Fatalf("expected namespace to salt the derivation")
	}
}

func TestLocalIdentityPrefix(t *testing.T) {
	id := LocalIdentity(3)
	if !IsLocalIdentity(id) {
		t.Fatalf("expected %q to be local", id)
	}
	if IsLocalIdentity("q-backend-1") {
		t.Fatalf("backend id misclassified as local")
	}
	if IsLocalIdentity(ImportIdentity(uuid.New(), "src-1")) {
		t.Fatalf("derived id misclassified as local")
	}
}
