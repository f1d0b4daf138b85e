package main

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Run executes the policy command. The output is valid as the policy:
// section of a config file.
func (c *PolicyCmd) Run(deps *Dependencies) error {
	out, err := yaml.Marshal(map[string]interface{}{"policy": deps.Config.Policy})
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	_, err = deps.Stdout.Write(out)
	return err
}
