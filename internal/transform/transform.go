// Package transform models the fixed set of image transformations and the
// configuration objects sent to the hosted rendering CDN. The type
// enumeration is closed: every type declares its own parameter schema and
// the set of editable fields it accepts.
package transform

import (
	"errors"
	"fmt"
)

// Type identifies one remote image-editing operation.
type Type string

const (
	TypeRestore          Type = "restore"
	TypeRemoveBackground Type = "removeBackground"
	TypeFill             Type = "fill"
	TypeRemove           Type = "remove"
	TypeRecolor          Type = "recolor"
	TypeGenerativeFill   Type = "generativeFill"
)

var (
	// ErrUnknownType is returned for a type outside the closed enumeration.
	ErrUnknownType = errors.New("unknown transformation type")
	// ErrUnknownField is returned when an edit names a field the type's
	// parameter schema does not declare.
	ErrUnknownField = errors.New("unknown field for transformation type")
	// ErrTypeMismatch is returned when two configs of different types are merged.
	ErrTypeMismatch = errors.New("transformation type mismatch")
)

// allTypes lists every member of the closed enumeration.
var allTypes = []Type{
	TypeRestore,
	TypeRemoveBackground,
	TypeFill,
	TypeRemove,
	TypeRecolor,
	TypeGenerativeFill,
}

// ParseType validates a raw type string against the enumeration.
func ParseType(s string) (Type, error) {
	for _, t := range allTypes {
		if Type(s) == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Valid reports whether the type is a member of the enumeration.
func (t Type) Valid() bool {
	_, err := ParseType(string(t))
	return err == nil
}

// Info carries display metadata for a transformation type.
type Info struct {
	Title    string `json:"title"`
	SubTitle string `json:"sub_title"`
}

var typeInfo = map[Type]Info{
	TypeRestore:          {Title: "Restore Image", SubTitle: "Refine images by removing noise and imperfections"},
	TypeRemoveBackground: {Title: "Background Remove", SubTitle: "Removes the background of the image"},
	TypeFill:             {Title: "Generative Fill", SubTitle: "Enhance an image's dimensions using AI outpainting"},
	TypeRemove:           {Title: "Object Remove", SubTitle: "Identify and eliminate objects from images"},
	TypeRecolor:          {Title: "Object Recolor", SubTitle: "Identify and recolor objects from the image"},
	TypeGenerativeFill:   {Title: "Generative Fill", SubTitle: "Fill expanded regions with AI-generated content"},
}

// InfoFor returns display metadata for a valid type.
func InfoFor(t Type) Info {
	return typeInfo[t]
}

// Editable field names, shared across parameter schemas.
const (
	FieldPrompt      = "prompt"
	FieldColor       = "color"
	FieldAspectRatio = "aspectRatio"
)

// editableFields declares which fields each type accepts. Types absent
// from an entry's list are auto-configured and take no edits.
var editableFields = map[Type][]string{
	TypeRestore:          {},
	TypeRemoveBackground: {},
	TypeFill:             {FieldAspectRatio},
	TypeRemove:           {FieldPrompt},
	TypeRecolor:          {FieldPrompt, FieldColor},
	TypeGenerativeFill:   {FieldPrompt, FieldAspectRatio},
}

// ValidateField checks that a field is editable for the given type.
func ValidateField(t Type, field string) error {
	fields, ok := editableFields[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	for _, f := range fields {
		if f == field {
			return nil
		}
	}
	return fmt.Errorf("%w: %q on %q", ErrUnknownField, field, t)
}

// RestoreParams configures noise/imperfection restoration.
type RestoreParams struct {
	Restore bool `json:"restore"`
}

// RemoveBackgroundParams configures background removal.
type RemoveBackgroundParams struct {
	RemoveBackground bool `json:"removeBackground"`
}

// FillParams configures aspect-ratio outpainting.
type FillParams struct {
	FillBackground bool   `json:"fillBackground"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
}

// RemoveParams configures prompt-targeted object removal.
type RemoveParams struct {
	Prompt       string `json:"prompt"`
	RemoveShadow bool   `json:"removeShadow"`
	Multiple     bool   `json:"multiple"`
}

// RecolorParams configures prompt-targeted object recoloring.
type RecolorParams struct {
	Prompt   string `json:"prompt"`
	To       string `json:"to"`
	Multiple bool   `json:"multiple"`
}

// GenerativeFillParams configures prompt-guided outpainting.
type GenerativeFillParams struct {
	FillBackground bool   `json:"fillBackground"`
	Prompt         string `json:"prompt,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
}

// Config is a tagged union over the type enumeration: exactly the variant
// group matching Type is populated. Nested groups keep the merge key-wise
// (an edit to recolor.to never erases recolor.prompt).
type Config struct {
	Type             Type                    `json:"type"`
	Restore          *RestoreParams          `json:"restore,omitempty"`
	RemoveBackground *RemoveBackgroundParams `json:"removeBackground,omitempty"`
	Fill             *FillParams             `json:"fill,omitempty"`
	Remove           *RemoveParams           `json:"remove,omitempty"`
	Recolor          *RecolorParams          `json:"recolor,omitempty"`
	GenerativeFill   *GenerativeFillParams   `json:"generativeFill,omitempty"`
}

// Default returns the fixed default configuration for a type. The
// enumeration is closed, so an unknown type is a caller bug surfaced as an
// error rather than a zero Config.
func Default(t Type) (Config, error) {
	switch t {
	case TypeRestore:
		return Config{Type: t, Restore: &RestoreParams{Restore: true}}, nil
	case TypeRemoveBackground:
		return Config{Type: t, RemoveBackground: &RemoveBackgroundParams{RemoveBackground: true}}, nil
	case TypeFill:
		return Config{Type: t, Fill: &FillParams{FillBackground: true}}, nil
	case TypeRemove:
		return Config{Type: t, Remove: &RemoveParams{}}, nil
	case TypeRecolor:
		return Config{Type: t, Recolor: &RecolorParams{}}, nil
	case TypeGenerativeFill:
		return Config{Type: t, GenerativeFill: &GenerativeFillParams{FillBackground: true}}, nil
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// Validate checks the tagged union invariant: known type, matching group set.
func (c Config) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	ok := false
	switch c.Type {
	case TypeRestore:
		ok = c.Restore != nil
	case TypeRemoveBackground:
		ok = c.RemoveBackground != nil
	case TypeFill:
		ok = c.Fill != nil
	case TypeRemove:
		ok = c.Remove != nil
	case TypeRecolor:
		ok = c.Recolor != nil
	case TypeGenerativeFill:
		ok = c.GenerativeFill != nil
	}
	if !ok {
		return fmt.Errorf("config for %q missing its parameter group", c.Type)
	}
	return nil
}

// Clone returns a deep copy so merges never alias the caller's groups.
func (c Config) Clone() Config {
	out := Config{Type: c.Type}
	if c.Restore != nil {
		v := *c.Restore
		out.Restore = &v
	}
	if c.RemoveBackground != nil {
		v := *c.RemoveBackground
		out.RemoveBackground = &v
	}
	if c.Fill != nil {
		v := *c.Fill
		out.Fill = &v
	}
	if c.Remove != nil {
		v := *c.Remove
		out.Remove = &v
	}
	if c.Recolor != nil {
		v := *c.Recolor
		out.Recolor = &v
	}
	if c.GenerativeFill != nil {
		v := *c.GenerativeFill
		out.GenerativeFill = &v
	}
	return out
}

// Merge overlays settled field edits onto a base configuration. Edits win
// over base values; untouched sibling keys within the same parameter group
// are retained. Unknown fields for the type are rejected.
func Merge(base Config, edits map[string]string) (Config, error) {
	if err := base.Validate(); err != nil {
		return Config{}, err
	}
	out := base.Clone()
	for field, value := range edits {
		if err := out.applyEdit(field, value); err != nil {
			return Config{}, err
		}
	}
	return out, nil
}

func (c *Config) applyEdit(field, value string) error {
	if err := ValidateField(c.Type, field); err != nil {
		return err
	}
	switch c.Type {
	case TypeFill:
		if field == FieldAspectRatio {
			c.Fill.AspectRatio = value
		}
	case TypeRemove:
		if field == FieldPrompt {
			c.Remove.Prompt = value
		}
	case TypeRecolor:
		switch field {
		case FieldPrompt:
			c.Recolor.Prompt = value
		case FieldColor:
			c.Recolor.To = value
		}
	case TypeGenerativeFill:
		switch field {
		case FieldPrompt:
			c.GenerativeFill.Prompt = value
		case FieldAspectRatio:
			c.GenerativeFill.AspectRatio = value
		}
	}
	return nil
}
