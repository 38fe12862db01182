package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"dedi/internal/log"
)

// SaveFlags persists the flags section to the config file, preserving
// comments and the rest of the document. The file is created from the
// default template if it does not exist.
func SaveFlags(configPath string, flags map[string]bool) error {
	log.Debug(log.CatConfig, "Saving flags", "path", configPath, "count", len(flags))

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		if werr := WriteDefaultConfig(configPath); werr != nil {
			return werr
		}
		data, err = os.ReadFile(configPath)
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	flagsNode := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range sortedKeys(flags) {
		flagsNode.Content = append(flagsNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			boolNode(flags[name]),
		)
	}

	if len(doc.Content) == 0 {
		doc.Kind = yaml.DocumentNode
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode}}
	}
	root := doc.Content[0]

	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "flags" {
			root.Content[i+1] = flagsNode
			replaced = true
			break
		}
	}
	if !replaced {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "flags"},
			flagsNode,
		)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encoding config file: %w", err)
	}

	if err := os.WriteFile(configPath, out, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Saved flags", "path", configPath)
	return nil
}

func boolNode(v bool) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "false"}
	if v {
		n.Value = "true"
	}
	return n
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
