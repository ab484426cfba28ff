package partition

import (
	"fmt"

	"github.com/vecbridge/vecbridge/vec"
)

// Decode and iteration failures are not retried here: identical input fails
// identically, so all of them propagate to the engine's task execution with
// the offending identity attached by the codec.

// UnsupportedTypeError reports a minor-type tag with no registry entry.
// Fatal for the partition being decoded.
type UnsupportedTypeError struct {
	Tag uint8
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported minor type tag %d", e.Tag)
}

// CorruptStreamError reports a stream that cannot hold the partition it
// declares, a truncated element or a malformed length prefix. The partial
// partition is discarded, never returned.
type CorruptStreamError struct {
	Reason string
}

func (e *CorruptStreamError) Error() string {
	return "corrupt partition stream: " + e.Reason
}

// TypeMismatchError reports iteration requested with an element type
// inconsistent with the vector's minor type.
type TypeMismatchError struct {
	Want vec.MinorType
	Got  vec.MinorType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("iterator element type wants %s vector, partition holds %s", e.Want, e.Got)
}
