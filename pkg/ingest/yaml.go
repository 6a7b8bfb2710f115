package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/csirtlab/hostrisk/pkg/topology"
)

// LoadYAML reads a topology description from a YAML file.
func LoadYAML(path string) (*topology.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse topology %s: %w", path, err)
	}

	return Build(&doc)
}
