// Package pyparse wraps the tree-sitter Python grammar and extracts the
// public module-level symbols a source file exports.
package pyparse

import (
	"errors"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var (
	// ErrTreeNotFound means the parser declined to produce a tree.
	ErrTreeNotFound = errors.New("pyparse: parser produced no tree")
	// ErrNotInitialized means the handle was not built by Parse.
	ErrNotInitialized = errors.New("pyparse: handle not initialized")
)

// kindSet caches the grammar's node-kind ids for the fixed set the extractor
// matches on. The cache is per-handle state on purpose: a process-wide slot
// would make concurrent parses race on initialization.
type kindSet struct {
	module       uint16
	classDef     uint16
	funcDef      uint16
	exprStmt     uint16
	assignment   uint16
	identifier   uint16
	decoratedDef uint16
	block        uint16
	tryStmt      uint16
	exceptClause uint16
	ifStmt       uint16
	elseClause   uint16
	elifClause   uint16
	resolved     bool
}

func resolveKinds(lang *tree_sitter.Language) kindSet {
	return kindSet{
		module:       lang.IdForNodeKind("module", true),
		classDef:     lang.IdForNodeKind("class_definition", true),
		funcDef:      lang.IdForNodeKind("function_definition", true),
		exprStmt:     lang.IdForNodeKind("expression_statement", true),
		assignment:   lang.IdForNodeKind("assignment", true),
		identifier:   lang.IdForNodeKind("identifier", true),
		decoratedDef: lang.IdForNodeKind("decorated_definition", true),
		block:        lang.IdForNodeKind("block", true),
		tryStmt:      lang.IdForNodeKind("try_statement", true),
		exceptClause: lang.IdForNodeKind("except_clause", true),
		ifStmt:       lang.IdForNodeKind("if_statement", true),
		elseClause:   lang.IdForNodeKind("else_clause", true),
		elifClause:   lang.IdForNodeKind("elif_clause", true),
		resolved:     true,
	}
}

// Handle bundles language, parser, tree and a borrow of the parsed source.
// The source must outlive the handle; extracted symbol names alias it.
type Handle struct {
	lang   *tree_sitter.Language
	parser *tree_sitter.Parser
	tree   *tree_sitter.Tree
	source []byte
	kinds  kindSet
}

// Parse runs the Python grammar over source. The returned handle must be
// closed.
func Parse(source []byte) (*Handle, error) {
	lang := tree_sitter.NewLanguage(tree_sitter_python.Language())
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(lang); err != nil {
		parser.Close()
		return nil, err
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		parser.Close()
		return nil, ErrTreeNotFound
	}
	return &Handle{
		lang:   lang,
		parser: parser,
		tree:   tree,
		source: source,
		kinds:  resolveKinds(lang),
	}, nil
}

// Close releases the tree and parser, in reverse order of acquisition.
func (h *Handle) Close() {
	if h.tree != nil {
		h.tree.Close()
		h.tree = nil
	}
	if h.parser != nil {
		h.parser.Close()
		h.parser = nil
	}
	h.lang = nil
}
