package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ParseFormBool maps the closed set of form-accepted tokens to a boolean.
// Truthy: "true", "on", "yes", "1". Falsy: "", "false", "off", "no", "0".
// Matching is case-insensitive after trimming; anything else is an error
// rather than a silent false.
func ParseFormBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "yes", "1":
		return true, nil
	case "", "false", "off", "no", "0":
		return false, nil
	default:
		return false, eris.Errorf("model: unrecognized boolean token %q", v)
	}
}
