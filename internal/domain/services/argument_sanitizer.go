package services

import (
	"strings"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

// SanitizeArguments returns args without any "--flag value" pair whose flag
// is listed in rule. Flag names compare case-insensitively and a flag in
// last position is kept, since it has no value to hide. onDebug, when set,
// runs once for every dropped flag that toggles debug output.
func SanitizeArguments(args []string, rule entities.SanitizationRule, onDebug func()) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if i+1 < len(args) && strings.HasPrefix(arg, "--") {
			if sensitive, debug := rule.Match(arg[2:]); sensitive {
				if debug && onDebug != nil {
					onDebug()
				}
				i++ // skip value
				continue
			}
		}

		out = append(out, arg)
	}

	return out
}
