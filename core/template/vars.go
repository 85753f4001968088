package template

import (
	"fmt"
	"strings"

	scherr "github.com/adalundhe/scholar/core/errors"
)

// Vars is the nested mapping used for variable resolution. Dotted variable
// names walk the structure: {role.title} looks up Vars["role"]["title"].
// Leaves may be strings or any fmt.Sprint-able value.
type Vars map[string]any

// Resolve looks up a dotted variable name. The lookup splits on ".", walks
// the nested maps, and fails on any missing key or non-map intermediate.
func (v Vars) Resolve(name string) (string, error) {
	parts := strings.Split(name, ".")

	var current any = map[string]any(v)
	for i, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return "", scherr.Newf(scherr.KindBinding,
				"variable %q: %q is not a map", name, strings.Join(parts[:i], "."))
		}
		current, ok = m[part]
		if !ok {
			return "", scherr.Newf(scherr.KindBinding,
				"variable %q: missing key %q", name, part)
		}
	}

	switch val := current.(type) {
	case string:
		if val == "" {
			return "", scherr.Newf(scherr.KindBinding, "variable %q: empty value", name)
		}
		return val, nil
	case nil:
		return "", scherr.Newf(scherr.KindBinding, "variable %q: nil value", name)
	default:
		return fmt.Sprint(val), nil
	}
}

// Merge overlays other on top of v, returning a new Vars. Top-level keys in
// other win; nested maps are not merged recursively.
func (v Vars) Merge(other Vars) Vars {
	merged := make(Vars, len(v)+len(other))
	for k, val := range v {
		merged[k] = val
	}
	for k, val := range other {
		merged[k] = val
	}
	return merged
}
