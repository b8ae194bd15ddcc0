package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
	"gopkg.in/yaml.v3"
)

// StaticSource is an in-memory Source.
type StaticSource map[string][]*model.ResourceAgent

func (s StaticSource) Classes() ([]string, error) {
	classes := make([]string, 0, len(s))
	for class := range s {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes, nil
}

func (s StaticSource) Services(class string) ([]*model.ResourceAgent, error) {
	agents, ok := s[class]
	if !ok {
		return nil, errdef.NewNotFound("resource agent class %q not found", class)
	}
	return agents, nil
}

// YAMLSource reads resource agent metadata from a directory. Every sub directory is a class and
// every .yaml file within it describes one agent:
//
//	agents/
//	  ocf/
//	    IPaddr2.yaml
//	    Filesystem.yaml
//	  lsb/
//	    apache.yaml
type YAMLSource struct {
	Dir    string
	Logger *slog.Logger
}

func NewYAMLSource(dir string, logger *slog.Logger) YAMLSource {
	return YAMLSource{Dir: dir, Logger: logger}
}

func (s YAMLSource) Classes() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("error reading resource agent directory %q: %v", s.Dir, err)
	}

	var classes []string
	for _, entry := range entries {
		if entry.IsDir() {
			classes = append(classes, entry.Name())
		}
	}
	return classes, nil
}

func (s YAMLSource) Services(class string) ([]*model.ResourceAgent, error) {
	dir := filepath.Join(s.Dir, class)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errdef.NewNotFound("resource agent class %q not found", class)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading resource agent class %q: %v", class, err)
	}

	var agents []*model.ResourceAgent
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading resource agent %q: %v", path, err)
		}

		var agent model.ResourceAgent
		if err := yaml.Unmarshal(file, &agent); err != nil {
			return nil, fmt.Errorf("error parsing resource agent %q: %v", path, err)
		}
		if agent.Name == "" {
			agent.Name = strings.TrimSuffix(entry.Name(), ".yaml")
		}
		if agent.Class == "" {
			agent.Class = class
		}
		if s.Logger != nil {
			s.Logger.Debug("Parsed resource agent", "agent", agent.ID(), "parameters", len(agent.Parameters))
		}
		agents = append(agents, &agent)
	}
	return agents, nil
}
