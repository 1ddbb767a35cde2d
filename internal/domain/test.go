package domain

// TestInfo describes a test as reported by the host runner
type TestInfo struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Title      string     `json:"title" yaml:"title"`
	Suite      string     `json:"suite,omitempty" yaml:"suite,omitempty"`
	Tags       []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	State      string     `json:"state,omitempty" yaml:"state,omitempty"`
	Error      *TestError `json:"error,omitempty" yaml:"error,omitempty"`
	Screenshot string     `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
}

// TestError is the failure attached to a finished test
type TestError struct {
	Message string `json:"message" yaml:"message"`
	Stack   string `json:"stack,omitempty" yaml:"stack,omitempty"`
}
