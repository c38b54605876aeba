// Package params loads, rewrites and writes ROS 2 parameter files.
package params

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RewriteOptions controls Rewrite.
type RewriteOptions struct {
	// RootKey nests the whole document under this key when non-empty.
	RootKey string

	// Rewrites maps a leaf key or a dotted path to a replacement value in
	// literal text form.
	Rewrites map[string]string

	// ConvertTypes converts numeric rewrite values to ints and floats.
	ConvertTypes bool
}

// Rewrite loads source and returns the rewritten document. Key order and
// comments of the source are preserved.
func Rewrite(source string, opts RewriteOptions) (*yaml.Node, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading parameter file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing parameter file %s: %w", source, err)
	}

	root := documentRoot(&doc)
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parameter file %s: top level must be a mapping", source)
	}

	if len(opts.Rewrites) > 0 {
		applied := substituteLeaves(root, nil, opts)
		if err := addMissingPaths(root, opts, applied); err != nil {
			return nil, fmt.Errorf("parameter file %s: %w", source, err)
		}
	}

	if opts.RootKey != "" {
		root = &yaml.Node{
			Kind:    yaml.MappingNode,
			Tag:     "!!map",
			Content: []*yaml.Node{scalarNode(opts.RootKey, "!!str"), root},
		}
	}

	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}, nil
}

// RewriteFile runs Rewrite and writes the result to dest.
func RewriteFile(source, dest string, opts RewriteOptions) error {
	doc, err := Rewrite(source, opts)
	if err != nil {
		return err
	}
	return writeNode(dest, doc)
}

// documentRoot returns the top-level node, creating an empty mapping for an
// empty file.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// substituteLeaves replaces scalar leaves whose key or dotted path has a
// rewrite. It returns the set of rewrite keys that matched.
func substituteLeaves(node *yaml.Node, path []string, opts RewriteOptions) map[string]bool {
	applied := make(map[string]bool)
	if node.Kind != yaml.MappingNode {
		return applied
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		childPath := append(append([]string(nil), path...), key.Value)

		if value.Kind == yaml.MappingNode {
			for k := range substituteLeaves(value, childPath, opts) {
				applied[k] = true
			}
			continue
		}

		dotted := strings.Join(childPath, ".")
		if v, ok := opts.Rewrites[dotted]; ok {
			node.Content[i+1] = convertedNode(v, opts.ConvertTypes)
			applied[dotted] = true
		} else if v, ok := opts.Rewrites[key.Value]; ok {
			node.Content[i+1] = convertedNode(v, opts.ConvertTypes)
			applied[key.Value] = true
		}
	}
	return applied
}

// addMissingPaths creates every dotted rewrite that matched nothing.
func addMissingPaths(root *yaml.Node, opts RewriteOptions, applied map[string]bool) error {
	keys := make([]string, 0, len(opts.Rewrites))
	for k := range opts.Rewrites {
		if !applied[k] && strings.Contains(k, ".") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		node := root
		parts := strings.Split(k, ".")
		for _, part := range parts[:len(parts)-1] {
			child := mappingValue(node, part)
			if child == nil {
				child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
				node.Content = append(node.Content, scalarNode(part, "!!str"), child)
			}
			if child.Kind != yaml.MappingNode {
				return fmt.Errorf("cannot add %s: %s is not a mapping", k, part)
			}
			node = child
		}
		node.Content = append(node.Content,
			scalarNode(parts[len(parts)-1], "!!str"),
			convertedNode(opts.Rewrites[k], opts.ConvertTypes))
	}
	return nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func scalarNode(value, tag string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// convertedNode turns a rewrite's literal text into a scalar node. Booleans
// are always recognised; numbers only when convertTypes is set.
func convertedNode(text string, convertTypes bool) *yaml.Node {
	if convertTypes {
		if strings.Contains(text, ".") {
			if _, err := strconv.ParseFloat(text, 64); err == nil {
				return scalarNode(text, "!!float")
			}
		} else if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			return scalarNode(text, "!!int")
		}
	}
	switch strings.ToLower(text) {
	case "true":
		return scalarNode("true", "!!bool")
	case "false":
		return scalarNode("false", "!!bool")
	}
	return scalarNode(text, "!!str")
}

func writeNode(dest string, node *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating parameter directory: %w", err)
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing parameter file: %w", err)
	}
	return nil
}
