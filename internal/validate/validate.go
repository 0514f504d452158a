// Package validate implements the Manifest-driven argument validator: the
// per-argument type/shape rules plus the security overlay (payload size,
// nesting depth, and character rules) applied while validating.
// file: internal/validate/validate.go
package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/manifest"
	"github.com/jowharshamshiri/janus-go/internal/security"
)

// Violation describes a single rule failure for one argument.
type Violation struct {
	Argument string `json:"argument"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

// Validator validates a CommandSpec's declared arguments against supplied
// values, applying both the shape rules and the security overlay.
type Validator struct {
	payload *security.PayloadGuard

	mu           sync.Mutex
	patternCache map[string]*regexp.Regexp
}

// New builds a Validator. payloadGuard may be nil to use the default caps.
func New(payloadGuard *security.PayloadGuard) *Validator {
	if payloadGuard == nil {
		payloadGuard = security.DefaultPayloadGuard()
	}
	return &Validator{payload: payloadGuard, patternCache: make(map[string]*regexp.Regexp)}
}

// Validate checks args against spec and returns a *janerr.BaseError
// (CodeValidationError) carrying every violation found in Context["violations"],
// or nil if args conform.
func (v *Validator) Validate(spec *manifest.CommandSpec, args map[string]json.RawMessage) error {
	var violations []Violation

	for name, argSpec := range spec.Arguments {
		raw, present := args[name]
		if !present {
			if argSpec.Required {
				violations = append(violations, Violation{name, "required", "argument is required"})
			}
			continue
		}
		v.validateValue(name, argSpec, raw, 0, &violations)
	}

	for name := range args {
		if _, declared := spec.Arguments[name]; !declared {
			violations = append(violations, Violation{name, "unknown_argument", "argument is not declared for this command"})
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return janerr.NewValidationError(fmt.Sprintf("%d argument violation(s)", len(violations)), nil).
		WithContext("violations", violations)
}

func (v *Validator) validateValue(name string, spec manifest.ArgumentSpec, raw json.RawMessage, depth int, out *[]Violation) {
	if err := v.payload.CheckDepth(depth); err != nil {
		*out = append(*out, Violation{name, "depth", err.Error()})
		return
	}
	if err := v.payload.CheckSize(raw); err != nil {
		*out = append(*out, Violation{name, "size", err.Error()})
		return
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		*out = append(*out, Violation{name, "type", "value is not valid JSON"})
		return
	}

	if !typeMatches(spec.Type, decoded) {
		*out = append(*out, Violation{name, "type", fmt.Sprintf("expected %s", spec.Type)})
		return
	}

	switch spec.Type {
	case manifest.TypeString:
		s := decoded.(string)
		if err := v.payload.CheckString(s); err != nil {
			*out = append(*out, Violation{name, "security", err.Error()})
			return
		}
		length := utf8.RuneCountInString(s)
		if spec.MinLength != nil && length < *spec.MinLength {
			*out = append(*out, Violation{name, "min_length", fmt.Sprintf("length %d below minimum %d", length, *spec.MinLength)})
		}
		if spec.MaxLength != nil && length > *spec.MaxLength {
			*out = append(*out, Violation{name, "max_length", fmt.Sprintf("length %d above maximum %d", length, *spec.MaxLength)})
		}
		if spec.Pattern != "" {
			re, err := v.compilePattern(spec.Pattern)
			if err != nil {
				*out = append(*out, Violation{name, "pattern", "pattern is not a valid regular expression"})
			} else if !re.MatchString(s) {
				*out = append(*out, Violation{name, "pattern", "value does not match the required pattern"})
			}
		}
	case manifest.TypeNumber, manifest.TypeInteger:
		n := decoded.(float64)
		if spec.Type == manifest.TypeInteger && n != float64(int64(n)) {
			*out = append(*out, Violation{name, "type", "expected an integer"})
		}
		if spec.Minimum != nil && n < *spec.Minimum {
			*out = append(*out, Violation{name, "minimum", fmt.Sprintf("%v below minimum %v", n, *spec.Minimum)})
		}
		if spec.Maximum != nil && n > *spec.Maximum {
			*out = append(*out, Violation{name, "maximum", fmt.Sprintf("%v above maximum %v", n, *spec.Maximum)})
		}
	case manifest.TypeArray:
		arr := decoded.([]any)
		if spec.Items != nil {
			for i, elem := range arr {
				b, err := json.Marshal(elem)
				if err != nil {
					continue
				}
				v.validateValue(fmt.Sprintf("%s[%d]", name, i), *spec.Items, b, depth+1, out)
			}
		}
	}

	if len(spec.Enum) > 0 && !enumContains(spec.Enum, decoded) {
		*out = append(*out, Violation{name, "enum", "value is not one of the allowed choices"})
	}
}

func typeMatches(t manifest.ArgumentType, v any) bool {
	switch t {
	case manifest.TypeString:
		_, ok := v.(string)
		return ok
	case manifest.TypeNumber, manifest.TypeInteger:
		_, ok := v.(float64)
		return ok
	case manifest.TypeBoolean:
		_, ok := v.(bool)
		return ok
	case manifest.TypeArray:
		_, ok := v.([]any)
		return ok
	case manifest.TypeObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}

func enumContains(enum []any, v any) bool {
	vb, err := json.Marshal(v)
	if err != nil {
		return false
	}
	for _, e := range enum {
		eb, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if string(eb) == string(vb) {
			return true
		}
	}
	return false
}

func (v *Validator) compilePattern(pattern string) (*regexp.Regexp, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if re, ok := v.patternCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}
	v.patternCache[pattern] = re
	return re, nil
}
