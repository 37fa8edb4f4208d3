package entities

// BuiltinModule describes the wrapped game as a synthetic built-in module
// for a mod registry.
type BuiltinModule struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Version     string            `yaml:"version" json:"version"`
	Description string            `yaml:"description" json:"description"`
	Authors     []ModuleAuthor    `yaml:"authors" json:"authors"`
	Contact     map[string]string `yaml:"contact" json:"contact"`
	Paths       []string          `yaml:"paths" json:"paths"`
}

// ModuleAuthor is a module author with optional contact links
type ModuleAuthor struct {
	Name    string            `yaml:"name" json:"name"`
	Contact map[string]string `yaml:"contact,omitempty" json:"contact,omitempty"`
}
