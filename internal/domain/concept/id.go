package concept

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kailas-cloud/conceptd/internal/domain"
)

// idLen is the raw identifier size; rendered ids are 2*idLen hex chars.
const idLen = 12

// ID is the opaque concept identifier: a 12-byte storage-native object id
// (4-byte creation timestamp + 8 random bytes) encoded as 24 hex chars.
// The encoding never leaks past ParseID/String.
type ID [idLen]byte

// NewID generates a fresh identifier.
func NewID() ID {
	var id ID
	binary.BigEndian.PutUint32(id[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(id[4:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic("concept: read random bytes: " + err.Error())
	}
	return id
}

// ParseID validates the structural format of a rendered identifier.
// Malformed input yields domain.ErrInvalidID; no existence check is made.
func ParseID(s string) (ID, error) {
	if len(s) != hex.EncodedLen(idLen) {
		return ID{}, fmt.Errorf("%w: %q", domain.ErrInvalidID, s)
	}
	var id ID
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ID{}, fmt.Errorf("%w: %q", domain.ErrInvalidID, s)
	}
	return id, nil
}

// String renders the canonical lowercase hex form.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return id == ID{}
}
