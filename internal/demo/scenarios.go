// Package demo cycles canned scenarios through the simulation engine on
// a cron schedule, so a freshly started dashboard has live activity.
package demo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one canned task request
type Scenario struct {
	Task     string `yaml:"task"`
	Device   string `yaml:"device"`
	Learning *bool  `yaml:"learning,omitempty"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// defaultScenarios keep the demo loop useful without a scenario file
var defaultScenarios = []Scenario{
	{Task: "Send $20 to Jane", Device: "android_pixel_7"},
	{Task: "Order morning coffee", Device: "ios_iphone_15"},
	{Task: "Check unread messages", Device: "android_galaxy_s23"},
}

// LoadScenarios reads a YAML scenario file. An empty path or a missing
// file yields the built-in defaults.
func LoadScenarios(path string) ([]Scenario, error) {
	if path == "" {
		return defaultScenarios, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultScenarios, nil
		}
		return nil, err
	}

	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenarios: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return defaultScenarios, nil
	}

	for i, sc := range file.Scenarios {
		if sc.Task == "" {
			return nil, fmt.Errorf("scenario %d: task is required", i)
		}
	}

	return file.Scenarios, nil
}
