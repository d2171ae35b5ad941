package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deskd-io/deskd/pkg/protocol"
)

type yamlPack struct {
	Flows []protocol.FlowDefinition `yaml:"flows"`
}

// LoadDir reads flow definitions from every *.yaml/*.yml file in dir, in
// name order. A missing directory yields no flows.
func LoadDir(dir string) ([]protocol.FlowDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("flow: read dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var flows []protocol.FlowDefinition
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("flow: read %s: %w", name, err)
		}
		var pack yamlPack
		if err := yaml.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("flow: parse %s: %w", name, err)
		}
		flows = append(flows, pack.Flows...)
	}
	return flows, nil
}
