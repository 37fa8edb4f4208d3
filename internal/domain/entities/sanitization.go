package entities

import "strings"

// SanitizationRule maps sensitive flag names (lower case, without the
// leading dashes) to whether seeing the flag switches on debug logging.
type SanitizationRule map[string]bool

// Match reports whether flag is sensitive and whether it toggles debug output.
// Sensitivity ignores case; the debug toggle needs the exact lower-case name.
func (r SanitizationRule) Match(flag string) (sensitive, debug bool) {
	key := strings.ToLower(flag)
	debug, sensitive = r[key]
	return sensitive, debug && flag == key
}

// DefaultSanitizationRule lists the launch flags kept out of logs
var DefaultSanitizationRule = SanitizationRule{
	"savedir":     false,
	"debug":       true,
	"localclient": false,
}
