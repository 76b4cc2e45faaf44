package structure

import "gopkg.in/yaml.v3"

// yamlScope mirrors Scope's fields the way analyzer/linage.Scope mirrors
// a lineage scope node (kind, name, a parent's ID, a begin/end line
// range) — a flat, YAML-tagged projection of the tree's shape for
// inspection, not the Scope struct itself (Parent/children are pointers
// yaml.Marshal can't usefully render).
type yamlScope struct {
	ID       uint64      `yaml:"id"`
	Kind     string      `yaml:"kind"`
	Name     string      `yaml:"name,omitempty"`
	File     string      `yaml:"file,omitempty"`
	ParentID uint64      `yaml:"parentId,omitempty"`
	Start    int         `yaml:"start"`
	End      int         `yaml:"end"`
	Children []yamlScope `yaml:"children,omitempty"`
}

func toYAMLScope(s *Scope) yamlScope {
	y := yamlScope{
		ID:    s.ID,
		Kind:  s.Kind.String(),
		Name:  s.Name,
		File:  s.File,
		Start: s.BegLine,
		End:   s.EndLine,
	}
	if s.Parent != nil {
		y.ParentID = s.Parent.ID
	}
	for _, c := range s.children {
		y.Children = append(y.Children, toYAMLScope(c))
	}
	return y
}

// DebugYAML renders s and its descendants as YAML, for inspecting a
// recovered structure tree without going through the full experiment-
// database XML writer.
func (s *Scope) DebugYAML() (string, error) {
	out, err := yaml.Marshal(toYAMLScope(s))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
