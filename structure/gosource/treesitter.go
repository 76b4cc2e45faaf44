package gosource

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	sittergo "github.com/smacker/go-tree-sitter/golang"

	"github.com/viant/ccprof/structure"
)

// BuildFast re-derives Proc scopes for every .go file under dir using
// tree-sitter instead of go/parser — the same engine the teacher's
// TreeSitterInspector reaches for when scanning many files is more
// important than full type-checking fidelity (inspector_tree_sitter.go).
// It skips _test.go files when skipTests is set, files that cannot be read,
// and files for which tree-sitter returns an error or no tree; a file that
// parses with syntax errors is still scanned.
func BuildFast(dir, moduleName string, skipTests bool) (*structure.Tree, error) {
	tree := structure.NewTree(moduleName)
	parser := sitter.NewParser()
	parser.SetLanguage(sittergo.GetLanguage())

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		if skipTests && strings.HasSuffix(path, "_test.go") {
			return nil
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		parsed, err := parser.ParseCtx(context.Background(), nil, src)
		if err != nil || parsed == nil {
			return nil
		}
		addFastFile(tree, parsed.RootNode(), src, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func addFastFile(tree *structure.Tree, root *sitter.Node, src []byte, filename string) {
	fileScope := tree.New(structure.File, filepath.Base(filename), filename, 0, 0)
	tree.Root.AddChild(fileScope)

	funcQuery := sitter.NewQuery([]byte("(function_declaration) @func"), sittergo.GetLanguage())
	appendProcs(tree, fileScope, root, src, funcQuery, "name")

	methodQuery := sitter.NewQuery([]byte("(method_declaration) @method"), sittergo.GetLanguage())
	appendProcs(tree, fileScope, root, src, methodQuery, "name")
}

// appendProcs runs query over root and adds one Proc scope per match,
// named from the capture's "name" field (falling back to the whole
// capture's text for declarations without one) and ranged over the
// capture's own start/end line.
func appendProcs(tree *structure.Tree, fileScope *structure.Scope, root *sitter.Node, src []byte, query *sitter.Query, nameField string) {
	cursor := sitter.NewQueryCursor()
	cursor.Exec(query, root)
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			return
		}
		for _, capture := range match.Captures {
			node := capture.Node
			name := node.Content(src)
			if nameNode := node.ChildByFieldName(nameField); nameNode != nil {
				name = nameNode.Content(src)
			}
			beg := int(node.StartPoint().Row) + 1
			end := int(node.EndPoint().Row) + 1
			proc := tree.New(structure.Proc, name, fileScope.File, beg, end)
			fileScope.AddChild(proc)
		}
	}
}
