package commandstructure

// Command is one step of the upload pipeline. It receives the bytes produced by the
// previous step and returns the bytes for the next one.
type Command interface {
	Name() string
	Execute(imageData []byte) ([]byte, error)
}

// CommandFactory creates a command from its configuration parameters
type CommandFactory func(params map[string]any) (Command, error)

// CommandConfig names a registered command and carries its parameters
type CommandConfig struct {
	Name   string
	Params map[string]any
}
