// Package gosource builds a static structure tree straight from Go source
// text, for load modules that carry no -S structure file and no
// DWARF-backed loadmodule.Module to consult (a stripped Go binary, or a
// binary built from a source tree the caller points at with -I but cannot
// open for debug info). It derives Proc scopes only — file, name, and
// declared line range — never loop nests or inlining: those require the
// interval analysis the structurerec package's loop-recovery driver runs
// against a real control-flow graph, which Go source text does not give
// us directly.
package gosource

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	tsgolang "github.com/smacker/go-tree-sitter/golang"
	"golang.org/x/tools/go/packages"

	"github.com/viant/ccprof/structure"
)

// Build loads every package under dir (a Go module or a directory inside
// one) and returns a structure tree of File/Proc scopes, one File scope
// per source file and one Proc scope per function or method declaration.
// VMA intervals are left empty throughout: nothing in Go source text
// tells us where a procedure's machine code lands, so this tree is never
// queried with Tree.FindByVMA directly. Callers resolve a VMA to a source
// line through some other means (a line-number table a loadmodule.Module
// exposes) and then use ProcAt to find the enclosing procedure by file and
// line instead.
func Build(dir, moduleName string) (*structure.Tree, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes,
		Dir:  dir,
		Fset: token.NewFileSet(),
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, fmt.Errorf("gosource: loading packages under %s: %w", dir, err)
	}

	tree := structure.NewTree(moduleName)
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			filename := cfg.Fset.Position(file.Pos()).Filename
			addFile(tree, cfg.Fset, file, filename)
		}
	}
	return tree, nil
}

// BuildFromFiles parses each of filenames independently with tree-sitter,
// for source trees packages.Load cannot resolve (no go.mod reachable from
// dir, or a directory of files not meant to build as one package) — the
// same per-file fallback a type-checked package load falls back to when a
// directory-wide load is not appropriate. A file that fails to read or
// parse contributes no scopes rather than aborting the whole tree.
func BuildFromFiles(moduleName string, filenames []string) *structure.Tree {
	tree := structure.NewTree(moduleName)
	for _, filename := range filenames {
		src, err := os.ReadFile(filename)
		if err != nil {
			continue
		}
		addFileTreeSitter(tree, src, filename)
	}
	return tree
}

// addFileTreeSitter parses src as Go and adds one File scope with one Proc
// scope per function_declaration/method_declaration node, using src's row
// offsets (0-based in tree-sitter, so +1 throughout) for the declared line
// range. A root node that still carries a syntax error after parsing is
// treated the same as a parse failure: no scopes are added for it.
func addFileTreeSitter(tree *structure.Tree, src []byte, filename string) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsgolang.GetLanguage())
	parsed, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return
	}
	if parsed.RootNode().HasError() {
		return
	}

	fileScope := tree.New(structure.File, filepath.Base(filename), filename, 0, 0)
	tree.Root.AddChild(fileScope)

	for _, queryStr := range []string{
		"(function_declaration) @decl",
		"(method_declaration) @decl",
	} {
		query := sitter.NewQuery([]byte(queryStr), tsgolang.GetLanguage())
		cursor := sitter.NewQueryCursor()
		cursor.Exec(query, parsed.RootNode())
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				beg := int(capture.Node.StartPoint().Row) + 1
				end := int(capture.Node.EndPoint().Row) + 1
				name := treeSitterFuncName(capture.Node, src)
				proc := tree.New(structure.Proc, name, filename, beg, end)
				fileScope.AddChild(proc)
			}
		}
	}
}

// treeSitterFuncName reads a function_declaration's or method_declaration's
// name child directly out of src, prefixing a method with its receiver
// type the same way addFile's go/ast path does for a DWARF-free fallback
// tree to read identically regardless of which parser built it.
func treeSitterFuncName(decl *sitter.Node, src []byte) string {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	name := nameNode.Content(src)
	recvNode := decl.ChildByFieldName("receiver")
	if recvNode == nil {
		return name
	}
	recvType := treeSitterReceiverType(recvNode, src)
	if recvType == "" {
		return name
	}
	return recvType + "." + name
}

// treeSitterReceiverType strips the receiver parameter list down to its
// bare type name, unwrapping a pointer receiver and any generic type
// parameters.
func treeSitterReceiverType(recv *sitter.Node, src []byte) string {
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		return bareTypeName(typeNode, src)
	}
	return ""
}

func bareTypeName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "pointer_type":
		return bareTypeName(n.NamedChild(0), src)
	case "generic_type":
		if t := n.ChildByFieldName("type"); t != nil {
			return bareTypeName(t, src)
		}
		return n.Content(src)
	default:
		return n.Content(src)
	}
}

func addFile(tree *structure.Tree, fset *token.FileSet, file *ast.File, filename string) {
	fileScope := tree.New(structure.File, filepath.Base(filename), filename, 0, 0)
	tree.Root.AddChild(fileScope)
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		beg := fset.Position(fd.Pos()).Line
		end := fset.Position(fd.End()).Line
		proc := tree.New(structure.Proc, funcName(fd), filename, beg, end)
		fileScope.AddChild(proc)
	}
}

func funcName(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return fd.Name.Name
	}
	recv := recvTypeName(fd.Recv.List[0].Type)
	if recv == "" {
		return fd.Name.Name
	}
	return recv + "." + fd.Name.Name
}

func recvTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvTypeName(t.X)
	case *ast.IndexExpr:
		return recvTypeName(t.X)
	case *ast.IndexListExpr:
		return recvTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

// ProcAt returns the first Proc scope directly under the File scope for
// filename whose declared line range contains line (exact containment, no
// fuzzy epsilon), or nil if none claims it. Unlike
// structure.Tree.FindByVMA this walks by (file, line) rather than VMA,
// since a source-derived tree carries no VMA intervals to search by.
func ProcAt(tree *structure.Tree, filename string, line int) *structure.Scope {
	for _, f := range tree.Root.Children() {
		if f.File != filename {
			continue
		}
		for _, p := range f.Children() {
			if p.Kind == structure.Proc && p.ContainsLine(line) {
				return p
			}
		}
	}
	return nil
}
