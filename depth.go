package anyform

import "fmt"

// DepthContext tracks the current recursion depth against Config.MaxDepth.
// It is passed explicitly through every recursive decode, encode, and
// transform call; there is no hidden counter.
type DepthContext struct {
	Depth  int
	Config *Config
}

// NewDepthContext returns the root-level context for cfg. A nil cfg behaves
// like the zero Config (unlimited depth, errors not ignored).
func NewDepthContext(cfg *Config) DepthContext {
	return DepthContext{Depth: 0, Config: cfg.orZero()}
}

// Next returns the context for one nesting level deeper.
func (d DepthContext) Next() DepthContext {
	return DepthContext{Depth: d.Depth + 1, Config: d.Config}
}

// Check reports whether the current level exceeds the configured maximum.
// Callers invoke it on the Next() context before descending, so recursion is
// bounded at MaxDepth+1 levels.
func (d DepthContext) Check() error {
	if d.Config.MaxDepth > 0 && d.Depth > d.Config.MaxDepth {
		return NewIssue(CodeDepthExceeded,
			fmt.Sprintf("maximum depth %d exceeded at level %d", d.Config.MaxDepth, d.Depth), -1)
	}
	return nil
}

// IgnoreErrors reports the configured error policy.
func (d DepthContext) IgnoreErrors() bool { return d.Config.IgnoreErrors }

// Placeholder is the sentinel string substituted for a branch cut off by the
// depth limit when IgnoreErrors is set.
func (d DepthContext) Placeholder() string {
	return fmt.Sprintf("[Max depth exceeded at level %d]", d.Depth)
}
