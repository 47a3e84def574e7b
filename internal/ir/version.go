package ir

// Version constants for the data model and engine.
const (
	// IRVersion is the schema version of stored reports.
	IRVersion = "1"

	// EngineVersion is the cnl engine version.
	EngineVersion = "0.1.0"
)
