package routes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ruteri/simple-artefact-registry/interfaces"
	"gopkg.in/yaml.v3"
)

// SettingPrefix marks a key in the artefact tree as a setting rather than a child.
const SettingPrefix = "_"

var (
	// ErrInvalidTree is returned when the artefact tree cannot be interpreted.
	ErrInvalidTree = errors.New("invalid artefact tree")

	// ErrMissingBaseDirectory is returned when a leaf artefact has no base
	// directory in its own or any ancestor's settings.
	ErrMissingBaseDirectory = errors.New("no base directory configured for artefact")
)

// Node is either a *DirectoryNode or a *LeafNode.
type Node interface {
	nodeSettings() *NodeSettings
}

// NodeSettings are the setting keys declared directly on a node.
type NodeSettings struct {
	// Values holds the settings given a scalar value on this node.
	Values interfaces.Settings

	// Nulls lists settings given an explicit null on this node. A null token
	// can never be presented, a null base directory removes the inherited one.
	Nulls []string
}

// Apply overlays these settings on top of the inherited ones.
func (ns NodeSettings) Apply(inherited interfaces.Settings) interfaces.Settings {
	return inherited.Merge(ns.Values, ns.Nulls...)
}

// Child is a named entry of a directory node, kept in configuration order.
type Child struct {
	Name string
	Node Node
}

// DirectoryNode groups artefacts. It has at least one child unless it is the root.
type DirectoryNode struct {
	Settings NodeSettings
	Children []Child
}

// LeafNode is a single artefact endpoint.
type LeafNode struct {
	Settings NodeSettings
}

func (d *DirectoryNode) nodeSettings() *NodeSettings { return &d.Settings }
func (l *LeafNode) nodeSettings() *NodeSettings      { return &l.Settings }

// ParseTree converts the parsed "artefacts" section into a node tree. The root
// is always a directory, even when it declares no children. A nil or null
// node yields an empty root.
func ParseTree(root *yaml.Node) (*DirectoryNode, error) {
	root = resolve(root)
	if root == nil || isNull(root) {
		return &DirectoryNode{}, nil
	}

	node, err := parseNode(root, "")
	if err != nil {
		return nil, err
	}

	switch n := node.(type) {
	case *DirectoryNode:
		return n, nil
	case *LeafNode:
		return &DirectoryNode{Settings: n.Settings}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected root node %T", ErrInvalidTree, node)
	}
}

func parseNode(n *yaml.Node, path string) (Node, error) {
	if isNull(n) {
		return &LeafNode{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s must be a mapping or empty, line %d", ErrInvalidTree, displayPath(path), n.Line)
	}

	var (
		settings NodeSettings
		children []Child
		seen     = make(map[string]struct{}, len(n.Content)/2)
	)

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode := resolve(n.Content[i])
		valueNode := resolve(n.Content[i+1])

		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: non-scalar key in %s, line %d", ErrInvalidTree, displayPath(path), keyNode.Line)
		}
		key := keyNode.Value
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q in %s, line %d", ErrInvalidTree, key, displayPath(path), keyNode.Line)
		}
		seen[key] = struct{}{}

		if name, ok := strings.CutPrefix(key, SettingPrefix); ok {
			if !interfaces.KnownSetting(name) {
				continue
			}
			if isNull(valueNode) {
				settings.Nulls = append(settings.Nulls, name)
				continue
			}
			if valueNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: setting %q in %s must be a scalar, line %d", ErrInvalidTree, key, displayPath(path), valueNode.Line)
			}
			settings.Values.Set(name, valueNode.Value)
			continue
		}

		if err := validateName(key); err != nil {
			return nil, fmt.Errorf("%w: key %q in %s, line %d: %v", ErrInvalidTree, key, displayPath(path), keyNode.Line, err)
		}

		child, err := parseNode(valueNode, path+"/"+key)
		if err != nil {
			return nil, err
		}
		children = append(children, Child{Name: key, Node: child})
	}

	if len(children) == 0 {
		return &LeafNode{Settings: settings}, nil
	}
	return &DirectoryNode{Settings: settings, Children: children}, nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New("empty name")
	}
	if strings.ContainsAny(name, "{}*") {
		return errors.New("name must not contain '{', '}' or '*'")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.Contains(name, "//") {
		return errors.New("name must not start or end with '/' or contain empty segments")
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "." || segment == ".." {
			return errors.New("name must not contain '.' or '..' segments")
		}
	}
	return nil
}

func resolve(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return resolve(n.Content[0])
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return resolve(n.Alias)
	}
	return n
}

func isNull(n *yaml.Node) bool {
	switch n.Kind {
	case 0:
		return true
	case yaml.DocumentNode:
		return len(n.Content) == 0
	case yaml.ScalarNode:
		return n.ShortTag() == "!!null"
	}
	return false
}

func displayPath(path string) string {
	if path == "" {
		return "artefacts"
	}
	return "artefacts" + path
}
