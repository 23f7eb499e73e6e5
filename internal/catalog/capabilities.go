package catalog

import (
	"encoding/json"
	"fmt"
)

// Capability is a single feature flag a model may support.
type Capability uint8

const (
	CapJSON Capability = 1 << iota
	CapImages
	CapFunctions
	CapStreaming
	CapThinking
)

// capabilityNames is ordered so Names() output is stable.
var capabilityNames = []struct {
	flag Capability
	name string
}{
	{CapJSON, "json"},
	{CapImages, "images"},
	{CapFunctions, "functions"},
	{CapStreaming, "streaming"},
	{CapThinking, "thinking"},
}

// Capabilities is a set of Capability flags.
type Capabilities uint8

// Has reports whether every flag in c is set.
func (cs Capabilities) Has(c Capability) bool {
	return Capabilities(c)&cs == Capabilities(c)
}

// Names returns the set's flag names in a fixed order.
func (cs Capabilities) Names() []string {
	names := []string{}
	for _, cn := range capabilityNames {
		if cs.Has(cn.flag) {
			names = append(names, cn.name)
		}
	}
	return names
}

// MarshalJSON renders the set as a list of names, e.g. ["json","images"].
func (cs Capabilities) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Names())
}

// UnmarshalJSON reads the list form written by MarshalJSON. Unknown
// names are an error.
func (cs *Capabilities) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("capabilities: %w", err)
	}
	parsed, err := ParseCapabilities(names)
	if err != nil {
		return err
	}
	*cs = parsed
	return nil
}

// ParseCapabilities builds a set from flag names.
func ParseCapabilities(names []string) (Capabilities, error) {
	var cs Capabilities
	for _, n := range names {
		found := false
		for _, cn := range capabilityNames {
			if cn.name == n {
				cs |= Capabilities(cn.flag)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown capability %q", n)
		}
	}
	return cs, nil
}
