package app

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Identity scheme for list items.
//
// Freshly authored questions get a temporary local token until the backend
// issues a permanent id on first save; the serializer strips these. Imported
// questions derive their identity from the bank source id under the
// session's namespace, so importing the same candidate twice in one session
// collides on identity instead of duplicating.

const localIdentityPrefix = "tmp-"

// LocalIdentity builds the temporary token for the nth locally created item.
func LocalIdentity(n int) string {
	return localIdentityPrefix + strconv.Itoa(n)
}

// IsLocalIdentity reports whether identity is a session-local temporary
// token rather than a backend-issued id.
func IsLocalIdentity(identity string) bool {
	return strings.HasPrefix(identity, localIdentityPrefix)
}

// ImportIdentity deterministically derives an item identity from a bank
// source id, salted by the session namespace.
func ImportIdentity(namespace uuid.UUID, sourceID string) string {
	return uuid.NewSHA1(namespace, []byte(sourceID)).String()
}
