package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clif.manifest")

// ErrInvalid is returned for configurations that do not match the schema.
var ErrInvalid = errors.New("invalid configuration")

//go:embed schema.cue
var schemaSource string

// validate checks the raw decoded document against the #Config schema.
func validate(raw map[string]interface{}) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.Encode(raw)
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		log.Debugf("schema violation:\n%s", cueerrors.Details(err, nil))
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// pythonKeywords cannot appear as a segment of an importable module path.
var pythonKeywords = map[string]bool{
	"False":    true,
	"None":     true,
	"True":     true,
	"and":      true,
	"as":       true,
	"assert":   true,
	"async":    true,
	"await":    true,
	"break":    true,
	"class":    true,
	"continue": true,
	"def":      true,
	"del":      true,
	"elif":     true,
	"else":     true,
	"except":   true,
	"finally":  true,
	"for":      true,
	"from":     true,
	"global":   true,
	"if":       true,
	"import":   true,
	"in":       true,
	"is":       true,
	"lambda":   true,
	"nonlocal": true,
	"not":      true,
	"or":       true,
	"pass":     true,
	"raise":    true,
	"return":   true,
	"try":      true,
	"while":    true,
	"with":     true,
	"yield":    true,
}

// IsReservedSegment reports whether name is a Python keyword and so
// cannot name a package or module.
func IsReservedSegment(name string) bool {
	return pythonKeywords[name]
}

// ValidateModulePath applies the configuration checks to a module path
// given outside clif.toml.
func ValidateModulePath(path string) error {
	raw := map[string]interface{}{
		"module": map[string]interface{}{"path": path},
	}
	if err := validate(raw); err != nil {
		return err
	}
	return checkModulePath(path)
}

// checkModulePath rejects module paths Python could not import. The
// schema already constrains the character set.
func checkModulePath(path string) error {
	for _, seg := range strings.Split(path, ".") {
		if IsReservedSegment(seg) {
			return fmt.Errorf("%w: module path %q uses reserved name %q", ErrInvalid, path, seg)
		}
	}
	return nil
}
