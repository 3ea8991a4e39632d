package scene

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks
// regeneration or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks regeneration
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	EntityID EntityID           // which entity has the problem (zero if scene-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.EntityID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] entity %s: %s", e.Severity, e.EntityID.Short(), e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// Validate checks every entity of the scene. maxResolution is the limit the
// application clamps to; resolutions above it produce a warning, not an
// error. A non-positive maxResolution disables that check. Validate never
// mutates the scene.
func Validate(s *Scene, maxResolution int) ValidationResult {
	var result ValidationResult

	for _, e := range s.All() {
		if e.Name == "" {
			result.Errors = append(result.Errors, ValidationError{
				EntityID: e.ID,
				Message:  "entity name is empty",
				Severity: SeverityError,
			})
		}
		if e.ID != NewEntityID(e.Name) {
			result.Errors = append(result.Errors, ValidationError{
				EntityID: e.ID,
				Message:  fmt.Sprintf("entity ID does not match name %q", e.Name),
				Severity: SeverityError,
			})
		}

		r := e.Sphere.Resolution
		switch {
		case r < 0:
			result.Errors = append(result.Errors, ValidationError{
				EntityID: e.ID,
				Message:  fmt.Sprintf("%q: resolution is %d, must be non-negative", e.Name, r),
				Severity: SeverityError,
			})
		case maxResolution > 0 && r > maxResolution:
			result.Warnings = append(result.Warnings, ValidationError{
				EntityID: e.ID,
				Message:  fmt.Sprintf("%q: resolution %d exceeds limit %d and will be clamped", e.Name, r, maxResolution),
				Severity: SeverityWarning,
			})
		}
	}

	return result
}
