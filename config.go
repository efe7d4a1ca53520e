package imgto3d

// InvokerConfig describes which interpreter runs which connector script.
type InvokerConfig struct {
	Interpreter string `json:"interpreter"`
	Script      string `json:"script"`
	UseTTY      bool   `json:"use_tty,omitempty"`
}
