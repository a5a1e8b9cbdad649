package tree

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/schmitthub/grit/internal/gitexec"
)

// MergeMode selects merge semantics: overlay keeps target-only entries,
// replace tombstones them.
type MergeMode string

const (
	// MergeOverlay layers the input's entries onto the target.
	MergeOverlay MergeMode = "overlay"
	// MergeReplace makes the target equal to the (filtered) input.
	MergeReplace MergeMode = "replace"
)

// MergeOptions configures a filtered merge. Files holds glob patterns
// compiled once at construction; a leading "!" negates a pattern. Patterns
// match paths rooted at the merge's base, with a trailing "/" on trees.
// An empty list or the single pattern "**" disables filtering.
type MergeOptions struct {
	Files []string
	Mode  MergeMode

	matchers    []matcher
	hasPositive bool
	hasNegation bool
	filterAll   bool
}

type matcher struct {
	g      glob.Glob
	negate bool
	raw    string
}

// match reports whether the path passes this matcher. A negated matcher
// passes everything its pattern does not match.
func (m matcher) match(path string) bool {
	ok := m.g.Match(path)
	if m.negate {
		return !ok
	}
	return ok
}

// NewMergeOptions validates and compiles options up front, so matcher
// errors surface before any tree work begins.
func NewMergeOptions(files []string, mode MergeMode) (*MergeOptions, error) {
	o := &MergeOptions{Files: files, Mode: mode}

	switch mode {
	case MergeOverlay, MergeReplace:
	case "":
		o.Mode = MergeOverlay
	default:
		return nil, fmt.Errorf("%w: unknown merge mode %q", gitexec.ErrBadArgument, mode)
	}

	if len(files) == 0 || (len(files) == 1 && files[0] == "**") {
		o.filterAll = true
		return o, nil
	}

	for _, raw := range files {
		pattern := raw
		negate := strings.HasPrefix(raw, "!")
		if negate {
			pattern = raw[1:]
		}
		// '/' as separator: '*' stays within one path segment, '**'
		// crosses segments, matching gitignore expectations.
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q: %v", gitexec.ErrBadArgument, raw, err)
		}
		o.matchers = append(o.matchers, matcher{g: g, negate: negate, raw: raw})
		if negate {
			o.hasNegation = true
		} else {
			o.hasPositive = true
		}
	}
	return o, nil
}

// evaluate applies the matcher list to a child path. included means the
// entry itself may be taken; excluded means a negation ruled the whole
// child out; pending (trees only) means descend speculatively and keep the
// child only if a descendant survives.
func (o *MergeOptions) evaluate(childPath string, isTree bool) (included, excluded bool) {
	if o.filterAll {
		return true, false
	}

	// With no positive patterns everything is a candidate; negations can
	// only carve paths out.
	matched := !o.hasPositive
	for _, m := range o.matchers {
		ok := m.match(childPath)
		if ok && !m.negate {
			matched = true
		}
		if !ok && m.negate {
			return false, true
		}
	}
	return matched, false
}

// pendingDescent reports whether a tree child must be descended into even
// though it is not (yet) included: either it did not match but a descendant
// might, or negations exist that could exclude individual descendants.
func (o *MergeOptions) pendingDescent(included bool) bool {
	if o.filterAll {
		return false
	}
	return !included || o.hasNegation
}
