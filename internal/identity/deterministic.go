package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions
// (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// LayoutUUID derives the id for a builtin layout from its code slug.
func LayoutUUID(code string) uuid.UUID {
	return UUID("pagekit:layout:" + strings.ToLower(strings.TrimSpace(code)))
}

// VariantUUID derives a stable id for a registered variant type.
func VariantUUID(typeTag string) uuid.UUID {
	return UUID("pagekit:variant:" + strings.ToLower(strings.TrimSpace(typeTag)))
}
