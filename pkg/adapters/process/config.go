package process

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CommandConfig points a command name at the binary that serves it, with leading arguments
// and extra environment. A desktop backend uses it to swap xdotool, import or tesseract for a
// wrapper or a non-PATH install.
type CommandConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// Commands maps command names to their overrides.
type Commands map[string]CommandConfig

type commandsFile struct {
	Commands []CommandConfig `yaml:"commands"`
}

// LoadCommands reads a commands file. JSON parses too, being a subset of YAML.
// A missing file yields no overrides. Every entry needs a unique name and a command;
// unknown keys are rejected so a misspelt "comand" does not silently fall back to PATH.
func LoadCommands(path string) (Commands, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Commands{}, nil
		}
		return nil, fmt.Errorf("failed to read commands file: %w", err)
	}

	var file commandsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	commands := make(Commands, len(file.Commands))
	for i, c := range file.Commands {
		switch {
		case c.Name == "":
			return nil, fmt.Errorf("%s: entry %d has no name", path, i+1)
		case c.Command == "":
			return nil, fmt.Errorf("%s: %s has no command", path, c.Name)
		}
		if _, dup := commands[c.Name]; dup {
			return nil, fmt.Errorf("%s: %s is configured twice", path, c.Name)
		}
		commands[c.Name] = c
	}
	return commands, nil
}
