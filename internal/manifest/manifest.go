// Package manifest models the server-published API description: channels,
// commands, and argument schemas used to validate incoming requests.
// file: internal/manifest/manifest.go
package manifest

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
)

// BuiltinCommands is the hard-coded reserved list a Manifest may never
// redefine. Enforced at parse time per the built-in-protection invariant.
var BuiltinCommands = map[string]bool{
	"ping":         true,
	"echo":         true,
	"get_info":     true,
	"spec":         true,
	"validate":     true,
	"slow_process": true,
}

// ArgumentType enumerates the JSON shapes an ArgumentSpec may require.
type ArgumentType string

const (
	TypeString  ArgumentType = "string"
	TypeNumber  ArgumentType = "number"
	TypeInteger ArgumentType = "integer"
	TypeBoolean ArgumentType = "boolean"
	TypeArray   ArgumentType = "array"
	TypeObject  ArgumentType = "object"
)

var validTypes = map[ArgumentType]bool{
	TypeString: true, TypeNumber: true, TypeInteger: true,
	TypeBoolean: true, TypeArray: true, TypeObject: true,
}

// ArgumentSpec describes the validation rules for a single command argument.
type ArgumentSpec struct {
	Type        ArgumentType    `json:"type" yaml:"type"`
	Required    bool            `json:"required" yaml:"required"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Pattern     string          `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinLength   *int            `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength   *int            `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Minimum     *float64        `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     *float64        `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	Enum        []any           `json:"enum,omitempty" yaml:"enum,omitempty"`
	Items       *ArgumentSpec   `json:"items,omitempty" yaml:"items,omitempty"`
}

// CommandSpec describes one callable operation within a channel.
type CommandSpec struct {
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Arguments   map[string]ArgumentSpec `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Response    json.RawMessage         `json:"response,omitempty" yaml:"response,omitempty"`
}

// ChannelSpec groups commands under a logical namespace.
type ChannelSpec struct {
	Commands map[string]CommandSpec `json:"commands" yaml:"commands"`
}

// Manifest is the server's published description of everything it serves.
type Manifest struct {
	Name        string                 `json:"name" yaml:"name"`
	Version     string                 `json:"version" yaml:"version"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Channels    map[string]ChannelSpec `json:"channels" yaml:"channels"`
}

// Lookup resolves a (channel, command) pair to its CommandSpec. Built-in
// command names get no special treatment: since Validate rejects a Manifest
// that declares them, Lookup returns MethodNotFound for them, and callers
// route built-ins before calling it.
func (m *Manifest) Lookup(channel, command string) (*CommandSpec, error) {
	ch, ok := m.Channels[channel]
	if !ok {
		return nil, janerr.NewMethodNotFound("channel not found", nil).WithContext("channel", channel)
	}
	cmd, ok := ch.Commands[command]
	if !ok {
		return nil, janerr.NewMethodNotFound("command not found", nil).
			WithContext("channel", channel).WithContext("command", command)
	}
	return &cmd, nil
}

// ParseJSON decodes a Manifest from JSON text and validates it.
func ParseJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, janerr.NewParseError("manifest json decode failed", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseYAML decodes a Manifest from YAML text and validates it.
func ParseYAML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, janerr.NewParseError("manifest yaml decode failed", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate enforces load-time invariants: every argument type (and array
// items type) is known, and no built-in command name is redefined. Duplicate
// argument names are not checked; when JSON text repeats an argument name,
// ParseJSON keeps the last definition.
func (m *Manifest) Validate() error {
	for chName, ch := range m.Channels {
		for cmdName, cmd := range ch.Commands {
			if BuiltinCommands[cmdName] {
				return janerr.NewInvalidRequest("manifest redefines a built-in command", nil).
					WithContext("channel", chName).WithContext("command", cmdName)
			}
			for argName, arg := range cmd.Arguments {
				if !validTypes[arg.Type] {
					return janerr.NewInvalidRequest("manifest declares an unknown argument type", nil).
						WithContext("channel", chName).
						WithContext("command", cmdName).
						WithContext("argument", argName).
						WithContext("type", string(arg.Type))
				}
				if arg.Type == TypeArray && arg.Items != nil && !validTypes[arg.Items.Type] {
					return janerr.NewInvalidRequest("manifest array argument has an unknown items type", nil).
						WithContext("channel", chName).
						WithContext("command", cmdName).
						WithContext("argument", argName)
				}
			}
		}
	}
	return nil
}
