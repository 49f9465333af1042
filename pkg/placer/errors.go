package placer

import "fmt"

// LayoutMismatchError reports that the board and the logical layout disagree
// on footprint naming: no footprint could be resolved for an annotation
// format across the expected index range.
type LayoutMismatchError struct {
	Annotation string
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("no switch footprints found using '%s' annotation format", e.Annotation)
}

// UnroutableError reports that no collision-free path exists between a
// switch pad and a diode pad. It is collected per pair and does not abort
// the run.
type UnroutableError struct {
	Switch string
	Diode  string
}

func (e *UnroutableError) Error() string {
	return fmt.Sprintf("could not route %s with %s", e.Switch, e.Diode)
}

// ConfigError reports malformed run parameters, rejected before any board
// mutation.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}
