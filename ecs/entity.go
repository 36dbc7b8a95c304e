package ecs

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/rotisserie/eris"
)

// EntityId is an opaque entity identifier drawn from 64 random bits.
// The zero value is never issued and marks an empty slot.
type EntityId uint64

// ErrInvalidEntityId is returned when parsing a malformed entity id.
var ErrInvalidEntityId = eris.New("invalid entity id")

// newEntityId draws a random non-zero id.
func newEntityId() EntityId {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic(eris.Wrap(err, "failed to read random entity id"))
		}
		if id := EntityId(binary.BigEndian.Uint64(buf[:])); id != 0 {
			return id
		}
	}
}

// String renders the id as 16 lowercase hex digits.
func (e EntityId) String() string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(e))
	return hex.EncodeToString(buf[:])
}

// ParseEntityId parses the output of EntityId.String.
func ParseEntityId(s string) (EntityId, error) {
	if len(s) != 16 {
		return 0, eris.Wrapf(ErrInvalidEntityId, "%q: want 16 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil || v == 0 {
		return 0, eris.Wrapf(ErrInvalidEntityId, "%q", s)
	}
	return EntityId(v), nil
}

func (e EntityId) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EntityId) UnmarshalText(text []byte) error {
	id, err := ParseEntityId(string(text))
	if err != nil {
		return err
	}
	*e = id
	return nil
}
