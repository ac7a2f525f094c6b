// internal/block/mode.go
package block

import "fmt"

// Mode is the semantic intent of a task. Immutable once created.
type Mode uint8

const (
	Read Mode = iota
	Write
	Update
)

func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case Update:
		return "update"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// accepts reports whether a toplevel group running in mode m may carry a
// child of mode c. Update children ride both passes.
func (m Mode) accepts(c Mode) bool {
	switch m {
	case Read:
		return c == Read || c == Update
	case Write:
		return c == Write || c == Update
	default:
		return false
	}
}
