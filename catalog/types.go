package catalog

// ParamType enumerates the parameter value types a node schema can declare.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// Param describes one declared node parameter.
type Param struct {
	Name    string    `yaml:"name" json:"name"`
	Type    ParamType `yaml:"type" json:"type"`
	Default any       `yaml:"default,omitempty" json:"default,omitempty"`
	Enum    []string  `yaml:"enum,omitempty" json:"enum,omitempty"`
}

// Schema is the per-node-type capability descriptor. Consumers treat
// schemas as immutable; the catalog replaces whole snapshots, never edits
// them in place.
type Schema struct {
	Type           string   `yaml:"type" json:"type"`
	DisplayName    string   `yaml:"display_name" json:"display_name"`
	Category       string   `yaml:"category" json:"category"`
	Integration    string   `yaml:"integration,omitempty" json:"integration,omitempty"`
	RequiredParams []Param  `yaml:"required_params,omitempty" json:"required_params,omitempty"`
	OptionalParams []Param  `yaml:"optional_params,omitempty" json:"optional_params,omitempty"`
	Inputs         []string `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs        []string `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	// CredentialType names the credential the node needs, empty if none.
	CredentialType string `yaml:"credential_type,omitempty" json:"credential_type,omitempty"`
	// LoopSemantics marks node types allowed to participate in cycles.
	LoopSemantics bool `yaml:"loop_semantics,omitempty" json:"loop_semantics,omitempty"`
}

// RequiredParam returns the declared required parameter by name, or nil.
func (s *Schema) RequiredParam(name string) *Param {
	for i := range s.RequiredParams {
		if s.RequiredParams[i].Name == name {
			return &s.RequiredParams[i]
		}
	}
	return nil
}

// Param returns the declared parameter (required or optional) by name, or nil.
func (s *Schema) Param(name string) *Param {
	if p := s.RequiredParam(name); p != nil {
		return p
	}
	for i := range s.OptionalParams {
		if s.OptionalParams[i].Name == name {
			return &s.OptionalParams[i]
		}
	}
	return nil
}

// HasInput reports whether the schema declares the named input port.
// Schemas with no declared inputs accept only the default port.
func (s *Schema) HasInput(port string) bool {
	return hasPort(s.Inputs, port)
}

// HasOutput reports whether the schema declares the named output port.
func (s *Schema) HasOutput(port string) bool {
	return hasPort(s.Outputs, port)
}

func hasPort(declared []string, port string) bool {
	if len(declared) == 0 {
		return port == "main"
	}
	for _, p := range declared {
		if p == port {
			return true
		}
	}
	return false
}
