package services

import "strings"

// LaunchArguments is the game's "--key value" argument convention. Keys keep
// their first-seen order; anything that is not part of a pair is extra.
type LaunchArguments struct {
	keys   []string
	values map[string]string
	bare   map[string]bool // flags that were followed by another flag
	extra  []string
}

// ParseLaunchArguments splits args into key/value pairs and extras. A flag
// followed by another flag gets an empty value.
func ParseLaunchArguments(args []string) *LaunchArguments {
	a := &LaunchArguments{values: make(map[string]string), bare: make(map[string]bool)}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") || i == len(args)-1 {
			a.extra = append(a.extra, arg)
			continue
		}

		value := args[i+1]
		if strings.HasPrefix(value, "--") {
			a.Put(arg[2:], "")
			a.bare[arg[2:]] = true
			continue
		}
		i++
		a.Put(arg[2:], value)
	}

	return a
}

// Get returns the value for key
func (a *LaunchArguments) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// GetOrDefault returns the value for key or def
func (a *LaunchArguments) GetOrDefault(key, def string) string {
	if v, ok := a.values[key]; ok {
		return v
	}
	return def
}

// Put sets key, keeping its original position when it already exists
func (a *LaunchArguments) Put(key, value string) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
	delete(a.bare, key)
}

// ToArgs renders the arguments back into a flat list, pairs first. Every
// key keeps its value, even an empty one, unless it was parsed bare.
func (a *LaunchArguments) ToArgs() []string {
	out := make([]string, 0, 2*len(a.keys)+len(a.extra))
	for _, k := range a.keys {
		out = append(out, "--"+k)
		if !a.bare[k] {
			out = append(out, a.values[k])
		}
	}
	return append(out, a.extra...)
}
