package identity

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generation is a random nonzero token bound to one occupancy of an arena
// slot. A zero generation marks a vacant slot and never appears in a live ID.
type Generation uint64

// ID identifies one registered object for the lifetime of that object. It is
// comparable and safe to use as a map key. The zero ID is never valid.
type ID struct {
	Context uuid.UUID
	Slot    uint32
	Gen     Generation
}

// IsZero reports whether the ID is the invalid zero value.
func (id ID) IsZero() bool {
	return id.Gen == 0
}

// String renders a stable diagnostic form: slot, generation, and a short
// context prefix.
func (id ID) String() string {
	if id.IsZero() {
		return "id:<zero>"
	}
	ctx := id.Context.String()
	if len(ctx) > 8 {
		ctx = ctx[:8]
	}
	return fmt.Sprintf("id:%d#%x@%s", id.Slot, uint64(id.Gen), ctx)
}

var fallbackGen atomic.Uint64

func randomGeneration() Generation {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Sequential fallback keeps generations unique per process even when
		// the entropy source is unavailable.
		return Generation(fallbackGen.Add(1))
	}
	gen := Generation(binary.LittleEndian.Uint64(buf[:]))
	if gen == 0 {
		gen = 1
	}
	return gen
}
