package indexer

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"driftwatch/internal/types"
)

// Extractor parses Python source text and collects the symbols it
// declares. An Extractor is not safe for concurrent use; construct one
// per goroutine.
type Extractor struct {
	parser   *sitter.Parser
	language *sitter.Language
}

func NewExtractor() (*Extractor, error) {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	parser := sitter.NewParser()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set language for parser: %w", err)
	}
	return &Extractor{
		parser:   parser,
		language: lang,
	}, nil
}

// Extract collects the symbols declared in src. It never fails the
// caller: source that does not parse cleanly yields a SymbolSet with
// all categories empty.
func (e *Extractor) Extract(src []byte) types.SymbolSet {
	set := types.NewSymbolSet()
	tree := e.parser.Parse(src, nil)
	if tree == nil {
		return set
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return set
	}
	e.walk(root, src, "", set)
	return set
}

// walk visits node with the innermost enclosing class name threaded
// through as an explicit parameter, so sibling subtrees can never leak
// context into each other.
func (e *Extractor) walk(node *sitter.Node, src []byte, class string, out types.SymbolSet) {
	switch node.Kind() {
	case "function_definition":
		if name := node.ChildByFieldName("name"); name != nil {
			if class != "" {
				out.Methods.Add(class + "." + name.Utf8Text(src))
			} else {
				out.Functions.Add(name.Utf8Text(src))
			}
		}
		// Declarations nested in the body keep the enclosing class:
		// a def inside a method still counts as a method of that class.
		e.walkChildren(node, src, class, out)
	case "class_definition":
		e.collectClass(node, src, out)
	case "decorated_definition":
		// Decorators are transparent for naming.
		if def := node.ChildByFieldName("definition"); def != nil {
			e.walk(def, src, class, out)
		}
	default:
		e.walkChildren(node, src, class, out)
	}
}

func (e *Extractor) walkChildren(node *sitter.Node, src []byte, class string, out types.SymbolSet) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			e.walk(child, src, class, out)
		}
	}
}

// collectClass records the class name, scans the body's direct
// statements for table and column declarations, and descends into
// nested definitions with this class as the new context. Statements
// nested inside control flow within the body are not scanned.
func (e *Extractor) collectClass(node *sitter.Node, src []byte, out types.SymbolSet) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	className := nameNode.Utf8Text(src)
	out.Classes.Add(className)

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt == nil {
			continue
		}
		switch stmt.Kind() {
		case "expression_statement":
			for j := uint(0); j < stmt.NamedChildCount(); j++ {
				if child := stmt.NamedChild(j); child != nil && child.Kind() == "assignment" {
					e.collectAttribute(child, src, out)
				}
			}
		case "function_definition", "class_definition", "decorated_definition":
			e.walk(stmt, src, className, out)
		}
	}
}

// collectAttribute applies the table/column heuristic to one assignment
// statement found directly in a class body. An annotated target is
// always a column, a plain assignment to __tablename__ with a string
// literal value names a table, and any other plain identifier target is
// a column. The heuristic is approximate: it cannot tell a schema
// column from an unrelated class attribute.
func (e *Extractor) collectAttribute(assign *sitter.Node, src []byte, out types.SymbolSet) {
	if assign.ChildByFieldName("type") != nil {
		if left := assign.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			out.Columns.Add(left.Utf8Text(src))
		}
		return
	}

	// Chained targets (a = b = value) all bind the terminal value.
	var targets []string
	value := assign
	for value.Kind() == "assignment" {
		if left := value.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			targets = append(targets, left.Utf8Text(src))
		}
		right := value.ChildByFieldName("right")
		if right == nil {
			return
		}
		value = right
	}

	tableName, isString := stringLiteral(value, src)
	for _, target := range targets {
		if target == "__tablename__" {
			if isString {
				out.Tables.Add(tableName)
			}
		} else {
			out.Columns.Add(target)
		}
	}
}

// stringLiteral returns the content of a plain string literal
// expression. F-strings and byte strings do not qualify; implicit
// concatenation and redundant parentheses are looked through, matching
// how Python itself folds them into a single constant.
func stringLiteral(node *sitter.Node, src []byte) (string, bool) {
	switch node.Kind() {
	case "parenthesized_expression":
		if node.NamedChildCount() != 1 {
			return "", false
		}
		return stringLiteral(node.NamedChild(0), src)
	case "concatenated_string":
		var parts strings.Builder
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child == nil {
				return "", false
			}
			part, ok := stringLiteral(child, src)
			if !ok {
				return "", false
			}
			parts.WriteString(part)
		}
		return parts.String(), true
	case "string":
	default:
		return "", false
	}

	text := node.Utf8Text(src)
	quote := strings.IndexAny(text, `"'`)
	if quote < 0 || strings.ContainsAny(text[:quote], "bBfF") {
		return "", false
	}
	var content strings.Builder
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "interpolation":
			return "", false
		case "string_content":
			content.WriteString(child.Utf8Text(src))
		}
	}
	return content.String(), true
}
