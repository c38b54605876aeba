package params

import (
	"gopkg.in/yaml.v3"

	"github.com/rzbill/navlaunch/pkg/types"
)

// ParseScalar converts a parameter value from literal text the way a
// command-line parameter would be read: YAML booleans, integers and floats
// become typed values, anything else stays a string.
func ParseScalar(text string) interface{} {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil || len(node.Content) == 0 {
		return text
	}
	n := node.Content[0]
	if n.Kind != yaml.ScalarNode {
		return text
	}

	switch n.ShortTag() {
	case "!!bool", "!!int", "!!float":
		var v interface{}
		if err := n.Decode(&v); err == nil {
			return v
		}
	}
	return text
}

// WriteOverlay writes inline parameters as a wildcard-node parameter file:
//
//	/**:
//	  ros__parameters:
//	    use_sim_time: true
func WriteOverlay(dest string, values []types.ParameterValue) error {
	params := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, v := range values {
		var value yaml.Node
		if err := value.Encode(v.Value); err != nil {
			return err
		}
		params.Content = append(params.Content, scalarNode(v.Name, "!!str"), &value)
	}

	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			scalarNode("/**", "!!str"),
			{
				Kind:    yaml.MappingNode,
				Tag:     "!!map",
				Content: []*yaml.Node{scalarNode("ros__parameters", "!!str"), params},
			},
		},
	}
	return writeNode(dest, &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
}

// Load reads a parameter file into a generic map, for inspection and tests.
func Load(path string) (map[string]interface{}, error) {
	doc, err := Rewrite(path, RewriteOptions{})
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := doc.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
