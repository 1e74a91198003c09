package core

// RulesFile represents the YAML form of the review rules guide.
type RulesFile struct {
	// Free-text description of the coding standards.
	Guide string `yaml:"guide"`

	// Individual rules appended to the guide as a bullet list.
	// Example: ["No panics in library code", "Exported identifiers need doc comments"]
	Rules []string `yaml:"rules"`
}
