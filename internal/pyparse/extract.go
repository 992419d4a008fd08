package pyparse

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// SymbolKind classifies an extracted symbol.
type SymbolKind uint8

const (
	SymbolClass SymbolKind = iota
	SymbolFunction
	SymbolVariable
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolClass:
		return "class"
	case SymbolFunction:
		return "function"
	case SymbolVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Symbol is one public module-level name. Name aliases the source buffer the
// handle was parsed from and is only valid while that buffer lives.
type Symbol struct {
	Kind SymbolKind
	Name []byte
}

// Symbols enumerates the public top-level definitions of the parsed module:
// classes, functions and simple assignments, including ones nested inside
// module-scope try/except and if/elif/else guards (the conditional-import
// idiom). Names starting with underscore are dropped. Names assigned in only
// one branch of a guard are still reported; callers wanting exactness must
// evaluate the guards, which this extractor deliberately does not.
func (h *Handle) Symbols() ([]Symbol, error) {
	if !h.kinds.resolved || h.tree == nil {
		return nil, ErrNotInitialized
	}
	root := h.tree.RootNode()
	if root.KindId() != h.kinds.module {
		return nil, nil
	}
	var out []Symbol
	h.collect(root, &out)
	return out, nil
}

// collect enumerates node's direct children as a statement sequence.
func (h *Handle) collect(node *tree_sitter.Node, out *[]Symbol) {
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		h.visit(node.Child(i), out)
	}
}

func (h *Handle) visit(node *tree_sitter.Node, out *[]Symbol) {
	if node == nil {
		return
	}
	switch node.KindId() {
	case h.kinds.block, h.kinds.ifStmt, h.kinds.elifClause, h.kinds.elseClause,
		h.kinds.tryStmt, h.kinds.exceptClause:
		// Control-flow containers at module scope: their contents still
		// bind module-level names, so recurse into the contained sequence.
		h.collect(node, out)

	case h.kinds.decoratedDef:
		// First child is the decorator; the wrapped definition follows.
		h.visit(node.Child(1), out)

	case h.kinds.classDef:
		h.emitDefinition(node, SymbolClass, out)

	case h.kinds.funcDef:
		h.emitDefinition(node, SymbolFunction, out)

	case h.kinds.exprStmt:
		first := node.Child(0)
		if first == nil || first.KindId() != h.kinds.assignment {
			return
		}
		lhs := first.NamedChild(0)
		if lhs == nil || lhs.KindId() != h.kinds.identifier {
			return
		}
		h.emit(lhs, SymbolVariable, out)
	}
}

func (h *Handle) emitDefinition(node *tree_sitter.Node, kind SymbolKind, out *[]Symbol) {
	name := node.NamedChild(0)
	if name == nil || name.KindId() != h.kinds.identifier {
		return
	}
	h.emit(name, kind, out)
}

func (h *Handle) emit(name *tree_sitter.Node, kind SymbolKind, out *[]Symbol) {
	text := h.source[name.StartByte():name.EndByte()]
	if len(text) == 0 || text[0] == '_' {
		return
	}
	*out = append(*out, Symbol{Kind: kind, Name: text})
}
