package rcol

import (
	"errors"
	"fmt"
)

// Format error kinds. Decoders wrap these with positional context;
// callers classify with errors.Is.
var (
	// ErrShortRead reports a buffer exhausted before an expected field.
	ErrShortRead = errors.New("short read")

	// ErrTagMismatch reports a payload whose embedded tag disagrees
	// with the tag it was dispatched under.
	ErrTagMismatch = errors.New("tag mismatch")

	// ErrSentinelMismatch reports a structural marker that did not
	// equal its expected literal.
	ErrSentinelMismatch = errors.New("sentinel mismatch")

	// ErrUnreasonableCount reports a count field beyond MaxCount,
	// guarding against hostile or corrupt input.
	ErrUnreasonableCount = errors.New("unreasonable count")

	// ErrUnknownChunk reports a chunk whose registered decoder failed
	// and which was demoted to a raw block.
	ErrUnknownChunk = errors.New("chunk decode failed")
)

// DiagKind classifies a Diagnostic.
type DiagKind string

const (
	DiagDecodeFailure  DiagKind = "decode-failure"
	DiagBadDirectory   DiagKind = "bad-directory"
	DiagBadPublicCount DiagKind = "bad-public-count"
	DiagBadKeyTable    DiagKind = "bad-key-table"
	DiagRefOutOfRange  DiagKind = "ref-out-of-range"
	DiagOrphanChunk    DiagKind = "orphan-chunk"
)

// Diagnostic records a non-fatal finding from decoding or validating a
// container. Diagnostics never prevent the container from being
// returned.
type Diagnostic struct {
	Chunk   int // chunk index, -1 for container-level findings
	Tag     string
	Kind    DiagKind
	Message string
}

func (d Diagnostic) String() string {
	if d.Chunk >= 0 {
		return fmt.Sprintf("chunk %d (%s): %s: %s", d.Chunk, d.Tag, d.Kind, d.Message)
	}
	return fmt.Sprintf("container: %s: %s", d.Kind, d.Message)
}
