package ir

// Version constants for the descriptor schema and the generator.
const (
	// IRVersion is the descriptor schema version.
	IRVersion = "1"

	// GeneratorVersion is the kernelgen version stamped into generated sources.
	GeneratorVersion = "0.1.0"
)
