// Package schema describes the shape every transform artifact item must
// match: a JSON Schema document plus a canonical serialisation used to
// compute the stable schema_hash spec.md §3 requires.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// errPrinter renders ErrorKind messages in English. ErrorKind.LocalizedString
// dereferences its *message.Printer argument, so a nil printer panics on the
// first structural validation failure.
var errPrinter = message.NewPrinter(language.English)

// Description is the "output model description" collaborator named in
// spec.md §6: a compiled schema plus the canonical bytes it was built
// from, so callers can both validate items against it and hash it.
type Description struct {
	Name     string
	Raw      json.RawMessage
	compiled *jsonschema.Schema
}

// Compile builds a Description from a raw JSON Schema document.
func Compile(name string, raw json.RawMessage) (*Description, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema: invalid JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	resourceName := name
	if resourceName == "" {
		resourceName = "schema.json"
	}
	if err := compiler.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("schema: adding resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("schema: compiling: %w", err)
	}

	canon, err := canonicalize(doc)
	if err != nil {
		return nil, err
	}

	return &Description{Name: name, Raw: canon, compiled: compiled}, nil
}

// Validate checks a decoded JSON value (map[string]any, []any, or a
// scalar) against the compiled schema. Returned error messages follow
// spec.md's "<dotted path>: <message>" convention whenever the
// underlying library exposes an instance location.
func (d *Description) Validate(instance any) error {
	if err := d.compiled.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if ok := asValidationError(err, &verr); ok {
			return fmt.Errorf("%s: %s", dottedPath(verr), verr.ErrorKind.LocalizedString(errPrinter))
		}
		return err
	}
	return nil
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		*target = ve
		return true
	}
	return false
}

func dottedPath(verr *jsonschema.ValidationError) string {
	if verr == nil || len(verr.InstanceLocation) == 0 {
		return "$"
	}
	path := "$"
	for _, seg := range verr.InstanceLocation {
		path += "." + seg
	}
	return path
}

// Hash returns a stable hex-encoded SHA-256 digest of the canonical
// schema bytes. Hashing the same schema twice always yields the same
// value (spec.md §8), because canonicalize produces deterministic key
// ordering.
func (d *Description) Hash() string {
	sum := sha256.Sum256(d.Raw)
	return hex.EncodeToString(sum[:])
}

// canonicalize re-marshals a decoded JSON document. encoding/json always
// emits map[string]any keys in sorted order, so two structurally
// identical schemas hash identically regardless of source key order.
func canonicalize(v any) ([]byte, error) {
	return json.Marshal(v)
}
