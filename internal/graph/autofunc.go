package graph

import (
	"fmt"

	"github.com/born-ml/graph/internal/ops"
)

// Metadata keys shared between the graph producer and the passes.
const (
	// MetaTarget holds the ops.ID of the natively-mutating operation an
	// auto_functionalized node wraps.
	MetaTarget = "target"

	// MetaArgNames holds the []string of argument names, parallel to the
	// leading inputs of an auto_functionalized node.
	MetaArgNames = "arg_names"

	// MetaMutates holds the []string of argument names the wrapped
	// operation writes into.
	MetaMutates = "mutates"

	// MetaNumBases holds the int count of trailing base inputs
	// (the producer's _all_bases disambiguation list).
	MetaNumBases = "_all_bases"

	// MetaCloneOnly holds the []string of mutated argument names the
	// producer, or this pass, proved must operate on a defensive copy.
	MetaCloneOnly = "only_clone_these_tensors"

	// MetaReinplaced holds the []string of mutated argument names this
	// pass rewrote to mutate shared storage directly.
	MetaReinplaced = "reinplaced_args"

	// MetaUserInplace marks a call the user explicitly requested as
	// in-place (an underscore-suffixed op called directly). Such calls
	// are exempt from graph-input protection.
	MetaUserInplace = "user_inplace"
)

// AutoFunc is a typed view over an auto_functionalized call node.
//
// Convention: the node's inputs are the wrapped operation's arguments in
// declared order, optionally followed by the producer's base list
// (MetaNumBases trailing inputs). The node's outputs carry the new
// contents of each base, in base order; when no explicit bases are given
// the mutated arguments themselves act as the bases.
type AutoFunc struct {
	n        *Node
	argNames []string
	mutates  []string
	numBases int
}

// AsAutoFunc returns a typed view of n if it is an auto_functionalized
// call with well-formed metadata.
func AsAutoFunc(n *Node) (*AutoFunc, bool) {
	if n.Op() != ops.AutoFunctionalized {
		return nil, false
	}
	argNames, ok := metaStrings(n, MetaArgNames)
	if !ok {
		return nil, false
	}
	mutates, ok := metaStrings(n, MetaMutates)
	if !ok {
		return nil, false
	}
	numBases := 0
	if raw, ok := n.Meta(MetaNumBases); ok {
		nb, ok := raw.(int)
		if !ok {
			return nil, false
		}
		numBases = nb
	}
	if len(n.Inputs()) != len(argNames)+numBases {
		return nil, false
	}
	return &AutoFunc{n: n, argNames: argNames, mutates: mutates, numBases: numBases}, true
}

// NewAutoFunc appends an auto_functionalized call wrapping target.
// args are named by argNames; mutates lists the argument names target
// writes into; bases optionally carries the producer's _all_bases list.
// One output value is created per base (or per mutated argument when no
// bases are given), holding that base's post-mutation contents.
func NewAutoFunc(g *Graph, target ops.ID, argNames []string, args []*Value, mutates []string, bases []*Value) (*Node, error) {
	if len(argNames) != len(args) {
		return nil, fmt.Errorf("auto_functionalized: %d arg names for %d args", len(argNames), len(args))
	}
	byName := make(map[string]*Value, len(args))
	for i, name := range argNames {
		byName[name] = args[i]
	}
	for _, m := range mutates {
		if _, ok := byName[m]; !ok {
			return nil, fmt.Errorf("auto_functionalized: mutated argument %q is not an argument", m)
		}
	}

	n := g.Append(ops.AutoFunctionalized, args...)
	for _, b := range bases {
		n.AddInput(b)
	}
	n.SetMeta(MetaTarget, target)
	n.SetMeta(MetaArgNames, append([]string(nil), argNames...))
	n.SetMeta(MetaMutates, append([]string(nil), mutates...))
	if len(bases) > 0 {
		n.SetMeta(MetaNumBases, len(bases))
	}

	outOf := bases
	if len(outOf) == 0 {
		outOf = make([]*Value, len(mutates))
		for i, m := range mutates {
			outOf[i] = byName[m]
		}
	}
	for i, b := range outOf {
		n.NewOutput(fmt.Sprintf("%s_new_%d", target, i), b.Shape(), b.DType())
	}
	return n, nil
}

// Node returns the underlying call node.
func (a *AutoFunc) Node() *Node {
	return a.n
}

// Target returns the wrapped mutating operation.
func (a *AutoFunc) Target() ops.ID {
	raw, _ := a.n.Meta(MetaTarget)
	id, _ := raw.(ops.ID)
	return id
}

// ArgNames returns the declared argument names.
func (a *AutoFunc) ArgNames() []string {
	return a.argNames
}

// Args returns the argument values, parallel to ArgNames.
func (a *AutoFunc) Args() []*Value {
	return a.n.Inputs()[:len(a.argNames)]
}

// ArgIndex returns the input slot of the named argument, or -1.
func (a *AutoFunc) ArgIndex(name string) int {
	for i, an := range a.argNames {
		if an == name {
			return i
		}
	}
	return -1
}

// Arg returns the current value of the named argument.
func (a *AutoFunc) Arg(name string) (*Value, bool) {
	i := a.ArgIndex(name)
	if i < 0 {
		return nil, false
	}
	return a.n.Input(i), true
}

// SetArg repoints the named argument at v.
func (a *AutoFunc) SetArg(name string, v *Value) error {
	i := a.ArgIndex(name)
	if i < 0 {
		return fmt.Errorf("auto_functionalized: no argument %q", name)
	}
	a.n.SetInput(i, v)
	return nil
}

// Mutates returns the names of the arguments the wrapped op writes into.
func (a *AutoFunc) Mutates() []string {
	return a.mutates
}

// HasExplicitBases reports whether the producer supplied _all_bases.
func (a *AutoFunc) HasExplicitBases() bool {
	return a.numBases > 0
}

// Bases returns the storage bases the call may touch: the producer's
// explicit list when present, otherwise the mutated arguments themselves.
func (a *AutoFunc) Bases() []*Value {
	if a.numBases > 0 {
		ins := a.n.Inputs()
		return ins[len(ins)-a.numBases:]
	}
	out := make([]*Value, len(a.mutates))
	for i, m := range a.mutates {
		v, _ := a.Arg(m)
		out[i] = v
	}
	return out
}

// OutputAt returns the output value carrying the post-mutation contents of
// Bases()[i].
func (a *AutoFunc) OutputAt(i int) *Value {
	return a.n.Outputs()[i]
}

// CloneOnly returns the mutated argument names marked as requiring a
// defensive copy.
func (a *AutoFunc) CloneOnly() []string {
	names, _ := metaStrings(a.n, MetaCloneOnly)
	return names
}

// SetCloneOnly records the clone-only argument set.
func (a *AutoFunc) SetCloneOnly(names []string) {
	a.n.SetMeta(MetaCloneOnly, append([]string(nil), names...))
}

// Reinplaced returns the mutated argument names the pass rewrote in place.
func (a *AutoFunc) Reinplaced() []string {
	names, _ := metaStrings(a.n, MetaReinplaced)
	return names
}

// SetReinplaced records the reinplaced argument set.
func (a *AutoFunc) SetReinplaced(names []string) {
	a.n.SetMeta(MetaReinplaced, append([]string(nil), names...))
}

func metaStrings(n *Node, key string) ([]string, bool) {
	raw, ok := n.Meta(key)
	if !ok {
		return nil, false
	}
	ss, ok := raw.([]string)
	return ss, ok
}
