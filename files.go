package imgto3d

const (
	// ScriptFileName is the default name of the connector script.
	ScriptFileName = "StableDiffusionConnector.py"
	// ModelFileSuffix is appended to the input image stem to name the generated model.
	ModelFileSuffix = "_3d.glb"
	// RedactedCredential replaces the API key wherever a command line or text is logged.
	RedactedCredential = "[REDACTED]"
)
