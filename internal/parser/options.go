package parser

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Options controls suffix detection.
//
// The zero value disallows private suffixes, so callers should start from
// DefaultOptions. A nil *Options passed to Parse or ParseSuffix means defaults.
type Options struct {
	AllowUnknown     bool     `json:"allow_unknown" yaml:"allow_unknown"`         // accept the last label when nothing matches
	AllowPrivate     bool     `json:"allow_private" yaml:"allow_private"`         // include privately delegated suffixes
	AllowIP          bool     `json:"allow_ip" yaml:"allow_ip"`                   // dotted-quad hosts get an empty suffix instead of an error
	ExtendedSuffixes []string `json:"extended_suffixes" yaml:"extended_suffixes"` // extra suffixes treated like ICANN ones
}

// DefaultOptions returns the default option set.
func DefaultOptions() Options {
	return Options{
		AllowUnknown:     false,
		AllowPrivate:     true,
		AllowIP:          true,
		ExtendedSuffixes: nil,
	}
}

// WithExtended returns a copy of o with more extended suffixes appended.
func (o Options) WithExtended(suffixes ...string) Options {
	merged := make([]string, 0, len(o.ExtendedSuffixes)+len(suffixes))
	merged = append(merged, o.ExtendedSuffixes...)
	merged = append(merged, suffixes...)
	o.ExtendedSuffixes = merged
	return o
}

var boolKeys = []struct {
	key string
	set func(*Options, bool)
}{
	{"allow_unknown", func(o *Options, v bool) { o.AllowUnknown = v }},
	{"allowUnknown", func(o *Options, v bool) { o.AllowUnknown = v }},
	{"allow_private", func(o *Options, v bool) { o.AllowPrivate = v }},
	{"allowPrivate", func(o *Options, v bool) { o.AllowPrivate = v }},
	{"allow_ip", func(o *Options, v bool) { o.AllowIP = v }},
	{"allowIP", func(o *Options, v bool) { o.AllowIP = v }},
}

var listKeys = []string{"extended_suffixes", "extendedSuffixes", "extendedTlds"}

// OptionsFromMap decodes an untyped options document, as produced by JSON or
// YAML decoders, on top of the defaults. Unknown keys are ignored.
func OptionsFromMap(m map[string]any) (Options, error) {
	opts := DefaultOptions()
	for _, bk := range boolKeys {
		key := bk.key
		raw, ok := m[key]
		if !ok || raw == nil {
			continue
		}
		v, ok := raw.(bool)
		if !ok {
			return Options{}, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidOptionType, key, raw)
		}
		bk.set(&opts, v)
	}
	for _, key := range listKeys {
		raw, ok := m[key]
		if !ok || raw == nil {
			continue
		}
		list, err := stringList(key, raw)
		if err != nil {
			return Options{}, err
		}
		opts.ExtendedSuffixes = append(opts.ExtendedSuffixes, list...)
	}
	return opts, nil
}

func stringList(key string, raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrInvalidOptionType, key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list, got %T", ErrInvalidOptionType, key, raw)
	}
}

// UnmarshalJSON decodes options on top of the defaults.
func (o *Options) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptionType, err)
	}
	opts, err := OptionsFromMap(m)
	if err != nil {
		return err
	}
	*o = opts
	return nil
}

// UnmarshalYAML decodes options on top of the defaults.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]any
	if err := value.Decode(&m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptionType, err)
	}
	opts, err := OptionsFromMap(m)
	if err != nil {
		return err
	}
	*o = opts
	return nil
}

func resolve(opts *Options) Options {
	if opts == nil {
		return DefaultOptions()
	}
	return *opts
}
