// Package decode renders a heap term back into internal/ast's syntax tree,
// spec.md §4.7. A term is reached from a register or a heap address;
// decoding follows REF chains via machine.Machine.Deref and renders
// CON/STR/LIS cells by resolving their functor id through
// machine.Machine.ResolveFunctor.
//
// Nothing here mutates the machine: decode is read-only introspection,
// exactly like internal/monitor's snapshot rendering.
package decode

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/machine"
)

// Term is the decoded tree shape: internal/ast's own Term, reused rather
// than duplicated, since a decoded term and a compiler-input term are the
// same algebra (spec.md §4.2/§4.7 share one term model).
type Term = ast.Term

// ErrDepthExceeded is returned (wrapped with the offending address) when a
// term nests deeper than a Decoder's configured limit — the REDESIGN
// FLAGS-mandated bounded sentinel for a cyclic, occurs-check-free binding
// (spec.md §8 scenario 6) instead of recursing forever.
var ErrDepthExceeded = errors.New("decode: max depth exceeded")

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxDepth overrides the default recursion limit. Ordinary terms never
// approach it; it only ever fires on a cyclic structure built without an
// occurs check.
func WithMaxDepth(n int) Option {
	return func(d *Decoder) { d.maxDepth = n }
}

// Decoder holds configuration shared across many decode calls (currently
// just the depth limit); it carries no per-call state itself.
type Decoder struct {
	maxDepth int
}

// New constructs a Decoder with a default max depth of 10000.
func New(opts ...Option) *Decoder {
	d := &Decoder{maxDepth: 10000}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Context is one decode session: a shared address->variable map so that
// two occurrences of the same unbound heap variable, reached from two
// different top-level Decode calls (e.g. two separate query variables
// that happen to be aliased), render as the same *ast.Var instead of two
// unrelated ones.
type Context struct {
	d    *Decoder
	seen map[int]*ast.Var
}

// NewContext starts a fresh decode session.
func (d *Decoder) NewContext() *Context {
	return &Context{d: d, seen: make(map[int]*ast.Var)}
}

// Decode renders the term reachable from heap address addr.
func (c *Context) Decode(m *machine.Machine, addr int) (ast.Term, error) {
	return c.decode(m, addr, 0)
}

func (c *Context) decode(m *machine.Machine, addr int, depth int) (ast.Term, error) {
	if depth > c.d.maxDepth {
		return nil, errors.Wrapf(ErrDepthExceeded, "at heap address %d", addr)
	}

	addr = m.Deref(addr)
	cell := m.Heap[addr]

	if cell.Tag() == machine.TagRef {
		if v, ok := c.seen[addr]; ok {
			return v, nil
		}
		v := &ast.Var{Name: fmt.Sprintf("_G%d", addr)}
		c.seen[addr] = v
		return v, nil
	}

	return c.decodeCell(m, cell, depth)
}

// decodeCell renders a non-REF cell value already in hand: a CON/STR/LIS
// cell either just read off the heap by decode, or found directly in a
// register with no backing heap variable cell of its own (the same
// distinction derefArg in internal/machine/run.go draws on the machine
// side).
func (c *Context) decodeCell(m *machine.Machine, cell machine.Cell, depth int) (ast.Term, error) {
	switch cell.Tag() {
	case machine.TagCon:
		id := cell.Payload()
		if id == m.NilFunctorID() {
			return ast.Nil(), nil
		}
		name, _, ok := m.ResolveFunctor(id)
		if !ok {
			return nil, errors.Wrapf(machine.ErrInvariant, "unresolvable functor id %d", id)
		}
		return ast.A(name), nil

	case machine.TagLis:
		pairAddr := cell.Payload()
		head, err := c.decode(m, pairAddr, depth+1)
		if err != nil {
			return nil, err
		}
		tail, err := c.decode(m, pairAddr+1, depth+1)
		if err != nil {
			return nil, err
		}
		return &ast.Compound{Functor: ast.ConsFunctor, Args: []ast.Term{head, tail}}, nil

	case machine.TagStr:
		descAddr := cell.Payload()
		arity, id := machine.UnpackFunctorWord(m.Heap[descAddr])
		name, _, ok := m.ResolveFunctor(id)
		if !ok {
			return nil, errors.Wrapf(machine.ErrInvariant, "unresolvable functor id %d", id)
		}
		args := make([]ast.Term, arity)
		for i := 0; i < arity; i++ {
			a, err := c.decode(m, descAddr+1+i, depth+1)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return &ast.Compound{Functor: name, Args: args}, nil

	default:
		return nil, errors.Wrapf(machine.ErrInvariant, "unexpected cell tag %s", cell.Tag())
	}
}

// DecodeCell renders a cell value already in hand — read directly from an
// environment frame's Y slot or an argument register — rather than a raw
// heap address.
func (c *Context) DecodeCell(m *machine.Machine, cell machine.Cell) (ast.Term, error) {
	if cell.Tag() == machine.TagRef {
		return c.decode(m, cell.Payload(), 0)
	}
	return c.decodeCell(m, cell, 0)
}

// DecodeReg is a convenience for the common case of decoding a term
// currently held in argument register Ai (1-based, as in every other
// engine-facing API) rather than a raw heap address.
func (c *Context) DecodeReg(m *machine.Machine, reg int) (ast.Term, error) {
	return c.DecodeCell(m, m.X[reg])
}
