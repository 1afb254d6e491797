package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SaveTheme updates the theme key in the config file. Comments and
// formatting in other sections are preserved by editing the yaml.Node tree
// instead of re-marshaling the whole config.
func SaveTheme(configPath, theme string) error {
	return saveKey(configPath, "theme", &yaml.Node{
		Kind:  yaml.ScalarNode,
		Value: theme,
	})
}

// SaveReplacements updates the replacements map in the config file,
// preserving comments elsewhere.
func SaveReplacements(configPath string, replacements map[string]string) error {
	return saveKey(configPath, "replacements", buildReplacementsNode(replacements))
}

// saveKey replaces (or appends) a single top-level key in the config file.
func saveKey(configPath, key string, value *yaml.Node) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	if doc.Kind == 0 {
		// Empty or new file
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: key},
						value,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == key {
					root.Content[i+1] = value
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: key},
					value,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := os.WriteFile(configPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// buildReplacementsNode builds a mapping node with deterministic key order.
// Hex color keys are quoted so "#..." is not read as a comment.
func buildReplacementsNode(replacements map[string]string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}

	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k, Style: yaml.DoubleQuotedStyle},
			&yaml.Node{Kind: yaml.ScalarNode, Value: replacements[k], Style: yaml.DoubleQuotedStyle},
		)
	}
	return node
}
