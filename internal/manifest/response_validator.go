// file: internal/manifest/response_validator.go
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/logging"
)

// ResponseValidator optionally checks a handler's successful result against
// the CommandSpec.Response JSON-Schema-subset. Compiling is lazy and cached
// per (channel, command) so repeated validate calls don't recompile.
type ResponseValidator struct {
	manifest *Manifest
	logger   logging.Logger

	mu     sync.Mutex
	cache  map[string]*jsonschema.Schema
}

// NewResponseValidator builds a validator bound to m. logger may be nil.
func NewResponseValidator(m *Manifest, logger logging.Logger) *ResponseValidator {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &ResponseValidator{
		manifest: m,
		logger:   logger,
		cache:    make(map[string]*jsonschema.Schema),
	}
}

// Check validates result against channel/command's declared Response schema.
// Commands with no Response schema always pass.
func (rv *ResponseValidator) Check(channel, command string, result []byte) error {
	spec, err := rv.manifest.Lookup(channel, command)
	if err != nil {
		return err
	}
	if len(spec.Response) == 0 {
		return nil
	}

	schema, err := rv.compiled(channel, command, spec.Response)
	if err != nil {
		return janerr.NewInternalError("response schema compile failed", err)
	}

	var doc any
	if err := json.Unmarshal(result, &doc); err != nil {
		return janerr.NewValidationError("response is not valid JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return janerr.NewValidationError("response does not conform to declared schema", err).
			WithContext("channel", channel).WithContext("command", command)
	}
	return nil
}

func (rv *ResponseValidator) compiled(channel, command string, raw []byte) (*jsonschema.Schema, error) {
	key := channel + "." + command
	rv.mu.Lock()
	defer rv.mu.Unlock()

	if s, ok := rv.cache[key]; ok {
		return s, nil
	}

	url := fmt.Sprintf("mem://%s/response.json", key)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, err
	}
	rv.cache[key] = schema
	return schema, nil
}
