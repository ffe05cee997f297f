// Package ast defines the parser-side model that typegraph imports.
//
// The DSL grammar and its cross-reference resolution live outside this
// module. The parser hands over one [Model] per source file, serialized as
// JSON with a "$type" discriminator on every object:
//
//	{
//	  "$type": "Model",
//	  "name": "cdm.base",
//	  "elements": [
//	    {"$type": "Data", "name": "Party", "attributes": [
//	      {"$type": "Attribute", "name": "id", "typeCall": {"type": {"$refText": "string"}},
//	       "card": {"inf": 1, "sup": 1}}
//	    ]}
//	  ]
//	}
//
// [Element] is a single struct for all element kinds; which fields are
// meaningful depends on [Element.Type]. Fields the graph does not model
// (annotations, conditions, operations) are kept as raw JSON so a downstream
// serializer can still reach them through the node's Source backreference.
package ast

import "encoding/json"

// Element type tags.
const (
	TypeModel       = "Model"
	TypeData        = "Data"
	TypeChoice      = "Choice"
	TypeEnumeration = "Enumeration"
	TypeFunction    = "Function"
	TypeTypeAlias   = "TypeAlias"
)

// Model is the root of one parsed source file.
type Model struct {
	Type     string     `json:"$type"`
	Name     string     `json:"name"`
	Version  string     `json:"version,omitempty"`
	Elements []*Element `json:"elements"`
	Imports  []Import   `json:"imports,omitempty"`
}

// Import is a namespace import declaration.
type Import struct {
	ImportedNamespace string `json:"importedNamespace"`
}

// Reference is a cross reference as written in source.
type Reference struct {
	Ref string `json:"$refText"`
}

// Name returns the referenced name, tolerating a nil reference.
func (r *Reference) Name() string {
	if r == nil {
		return ""
	}
	return r.Ref
}

// Ref builds a reference to name, or nil when name is empty.
func Ref(name string) *Reference {
	if name == "" {
		return nil
	}
	return &Reference{Ref: name}
}

// TypeCall is a use of a type, optionally with arguments.
type TypeCall struct {
	Type      *Reference      `json:"type,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// TypeName returns the called type's name, tolerating nil values.
func (t *TypeCall) TypeName() string {
	if t == nil {
		return ""
	}
	return t.Type.Name()
}

// Cardinality bounds of an attribute. Sup is nil when only the lower bound
// was written or when Unbounded is set.
type Cardinality struct {
	Inf       int  `json:"inf"`
	Sup       *int `json:"sup,omitempty"`
	Unbounded bool `json:"unbounded,omitempty"`
}

// Attribute is a Data attribute or a Function input/output.
type Attribute struct {
	Type        string          `json:"$type,omitempty"`
	Name        string          `json:"name"`
	TypeCall    *TypeCall       `json:"typeCall,omitempty"`
	Card        *Cardinality    `json:"card,omitempty"`
	Override    bool            `json:"override,omitempty"`
	Definition  string          `json:"definition,omitempty"`
	Synonyms    []Synonym       `json:"synonyms,omitempty"`
	Annotations json.RawMessage `json:"annotations,omitempty"`
}

// ChoiceOption is one alternative of a Choice. Options are named after the
// type they refer to.
type ChoiceOption struct {
	Type        string          `json:"$type,omitempty"`
	TypeCall    *TypeCall       `json:"typeCall,omitempty"`
	Definition  string          `json:"definition,omitempty"`
	Annotations json.RawMessage `json:"annotations,omitempty"`
}

// EnumValue is one value of an Enumeration.
type EnumValue struct {
	Type        string          `json:"$type,omitempty"`
	Name        string          `json:"name"`
	Display     string          `json:"display,omitempty"`
	Definition  string          `json:"definition,omitempty"`
	Synonyms    []Synonym       `json:"synonyms,omitempty"`
	Annotations json.RawMessage `json:"annotations,omitempty"`
}

// Synonym maps a type or value to an external vocabulary.
type Synonym struct {
	Value   string   `json:"value"`
	Sources []string `json:"sources,omitempty"`
}

// Element is a top-level declaration of a model.
type Element struct {
	Type       string `json:"$type"`
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
	Comments   string `json:"comments,omitempty"`

	// Data
	SuperType *Reference `json:"superType,omitempty"`
	// Enumeration
	Parent *Reference `json:"parent,omitempty"`

	// Data attributes; Choice options are decoded into Options.
	Attributes []*Attribute    `json:"-"`
	Options    []*ChoiceOption `json:"-"`
	EnumValues []*EnumValue    `json:"enumValues,omitempty"`

	// Function
	Inputs     []*Attribute `json:"inputs,omitempty"`
	Output     *Attribute   `json:"output,omitempty"`
	Expression string       `json:"expression,omitempty"`

	// TypeAlias
	TypeCall *TypeCall `json:"typeCall,omitempty"`

	Synonyms    []Synonym       `json:"synonyms,omitempty"`
	Annotations json.RawMessage `json:"annotations,omitempty"`
	Conditions  json.RawMessage `json:"conditions,omitempty"`
	Operations  json.RawMessage `json:"operations,omitempty"`
}

// UnmarshalJSON decodes the "attributes" array according to $type.
func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	var w struct {
		plain
		RawAttributes json.RawMessage `json:"attributes,omitempty"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Element(w.plain)
	if len(w.RawAttributes) == 0 {
		return nil
	}
	if e.Type == TypeChoice {
		return json.Unmarshal(w.RawAttributes, &e.Options)
	}
	return json.Unmarshal(w.RawAttributes, &e.Attributes)
}

// MarshalJSON encodes Attributes or Options under the "attributes" key.
func (e Element) MarshalJSON() ([]byte, error) {
	type plain Element
	w := struct {
		plain
		Attributes any `json:"attributes,omitempty"`
	}{plain: plain(e)}
	switch {
	case e.Type == TypeChoice && len(e.Options) > 0:
		w.Attributes = e.Options
	case len(e.Attributes) > 0:
		w.Attributes = e.Attributes
	}
	return json.Marshal(w)
}
