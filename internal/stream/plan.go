// Package stream implements the incremental update pipeline: classifying
// each new text snapshot against the previous one, managing the tokenizer
// lifecycle per configuration, and orchestrating serialized, coalesced
// updates into published snapshots.
package stream

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// PlanKind classifies the tokenizer work required for one text update.
type PlanKind int

const (
	// PlanNoOp means the text is unchanged; the current tokens are
	// republished without touching the tokenizer.
	PlanNoOp PlanKind = iota
	// PlanAppend means the new text extends the previous one; only the
	// suffix is fed to the tokenizer.
	PlanAppend
	// PlanReset means the text was edited, truncated, or a reset was
	// forced; the tokenizer is cleared and fed the full text.
	PlanReset
)

func (k PlanKind) String() string {
	switch k {
	case PlanNoOp:
		return "noop"
	case PlanAppend:
		return "append"
	case PlanReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Plan is the minimal tokenizer work for one text update.
type Plan struct {
	Kind  PlanKind
	Chunk string
	// EditAt is the rune offset of the first difference from the previously
	// processed text, recorded on unforced resets to locate the edit point
	// in traces.
	EditAt int
}

// planner tracks the previously processed text and classifies each new
// snapshot. Append detection is a common-prefix test: appends are the
// dominant case for progressively generated text, and feeding only the
// suffix avoids re-lexing the whole buffer on every chunk.
type planner struct {
	previous string
	dmp      *diffmatchpatch.DiffMatchPatch
}

func newPlanner() *planner {
	return &planner{dmp: diffmatchpatch.New()}
}

func (p *planner) plan(next string, force bool) Plan {
	switch {
	case force:
		return Plan{Kind: PlanReset, Chunk: next}
	case next == p.previous:
		return Plan{Kind: PlanNoOp}
	case p.isPrefix(next):
		return Plan{Kind: PlanAppend, Chunk: next[len(p.previous):]}
	default:
		return Plan{
			Kind:   PlanReset,
			Chunk:  next,
			EditAt: p.dmp.DiffCommonPrefix(p.previous, next),
		}
	}
}

// isPrefix reports whether the previous text is a strict byte prefix of
// next. The comparison must stay at the byte level: rune-based prefix
// lengths fold invalid bytes into U+FFFD and can claim a match for texts
// whose bytes differ.
func (p *planner) isPrefix(next string) bool {
	return len(next) > len(p.previous) && strings.HasPrefix(next, p.previous)
}

// commit records next as the processed text. Called unconditionally after
// a plan executes, success or failure, so a chunk the engine cannot
// process is never retried in a loop.
func (p *planner) commit(next string) {
	p.previous = next
}

func (p *planner) reset() {
	p.previous = ""
}
