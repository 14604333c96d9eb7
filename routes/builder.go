package routes

import (
	"fmt"

	"github.com/ruteri/simple-artefact-registry/interfaces"
	"gopkg.in/yaml.v3"
)

// Build walks the tree once and returns one route per leaf artefact, in
// configuration order. Each leaf's settings are its ancestors' settings
// overridden top-down, with the leaf's own settings applied last.
//
// Every leaf must resolve a non-empty base directory, otherwise
// ErrMissingBaseDirectory is returned naming the first offending artefact.
func Build(root *DirectoryNode) ([]interfaces.Route, error) {
	if root == nil {
		return nil, nil
	}
	return build(root, "", interfaces.Settings{}, nil)
}

// Compile parses the artefact section and builds its routes.
func Compile(artefacts *yaml.Node) ([]interfaces.Route, error) {
	root, err := ParseTree(artefacts)
	if err != nil {
		return nil, err
	}
	return Build(root)
}

func build(dir *DirectoryNode, baseURL string, inherited interfaces.Settings, routes []interfaces.Route) ([]interfaces.Route, error) {
	settings := dir.Settings.Apply(inherited)

	for _, child := range dir.Children {
		url := baseURL + "/" + child.Name

		switch node := child.Node.(type) {
		case *DirectoryNode:
			var err error
			routes, err = build(node, url, settings, routes)
			if err != nil {
				return nil, err
			}

		case *LeafNode:
			effective := node.Settings.Apply(settings)
			if effective.BaseDirectory == nil || *effective.BaseDirectory == "" {
				return nil, fmt.Errorf("%w: %s", ErrMissingBaseDirectory, url)
			}
			routes = append(routes, interfaces.Route{
				URLPath:     url,
				StoragePath: url,
				Settings:    effective,
			})

		default:
			return nil, fmt.Errorf("%w: unexpected node %T at %s", ErrInvalidTree, child.Node, url)
		}
	}

	return routes, nil
}
