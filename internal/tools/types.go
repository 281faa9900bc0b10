// Package tools holds the tool catalog and the immutable Registry built
// from it.
//
// Flow:
//
//	catalog.yaml → Catalog → Discover(probe) → Registry → Descriptor.Invocation(args)
package tools

import "strings"

// ToolCategory groups catalog entries for listing.
type ToolCategory string

const (
	CategoryNetworkDiscovery   ToolCategory = "network_discovery"
	CategoryWeb                ToolCategory = "web"
	CategoryPasswords          ToolCategory = "passwords"
	CategoryInformation        ToolCategory = "information_gathering"
	CategoryForensics          ToolCategory = "forensics"
	CategorySteganography      ToolCategory = "steganography"
	CategoryReverseEngineering ToolCategory = "reverse_engineering"
	CategoryExploitation       ToolCategory = "exploitation"
	CategoryNetworkAnalysis    ToolCategory = "network_analysis"
	CategoryCustom             ToolCategory = "custom"
)

// RawCommand is the catalog command value marking the raw command entry.
// That entry runs its "command" argument instead of a named binary and is
// never probed.
const RawCommand = "custom"

// RawCommandParam is the argument carrying the raw command line.
const RawCommandParam = "command"

// requiredByDefault lists parameter names that are always reported as
// required when a tool declares them.
var requiredByDefault = map[string]bool{
	"target":  true,
	"url":     true,
	"domain":  true,
	"file":    true,
	"command": true,
}

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ToolSchema defines the JSON schema for tool arguments.
type ToolSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Descriptor is the immutable invocation record for one tool.
type Descriptor struct {
	// Name is the unique identifier exposed to the orchestrator.
	Name string

	// Command is the underlying binary (or RawCommand).
	Command string

	// Params is the ordered parameter list; argument values are appended
	// to the command line in this order.
	Params []string

	// Required is the subset of Params in requiredByDefault, in Params order.
	Required []string

	Category ToolCategory
}

// NewDescriptor builds a descriptor and derives its required subset.
func NewDescriptor(name, command string, params []string, category ToolCategory) *Descriptor {
	p := make([]string, len(params))
	copy(p, params)

	required := make([]string, 0, len(p))
	for _, param := range p {
		if requiredByDefault[param] {
			required = append(required, param)
		}
	}

	return &Descriptor{
		Name:     name,
		Command:  command,
		Params:   p,
		Required: required,
		Category: category,
	}
}

// IsRaw reports whether the descriptor is the raw command entry.
func (d *Descriptor) IsRaw() bool {
	return d.Command == RawCommand
}

// Description returns the human-readable tool description.
func (d *Descriptor) Description() string {
	return "Kali Linux tool: " + d.Name + " (" + d.Command + ")"
}

// Schema renders the input schema advertised by tools/list.
// Every parameter is typed as a string.
func (d *Descriptor) Schema() ToolSchema {
	props := make(map[string]Property, len(d.Params))
	for _, param := range d.Params {
		props[param] = Property{
			Type:        "string",
			Description: param + " parameter for " + d.Name,
		}
	}

	required := make([]string, len(d.Required))
	copy(required, d.Required)

	return ToolSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// String returns "name (command params...)" for listings.
func (d *Descriptor) String() string {
	if len(d.Params) == 0 {
		return d.Name + " (" + d.Command + ")"
	}
	return d.Name + " (" + d.Command + " " + strings.Join(d.Params, " ") + ")"
}
