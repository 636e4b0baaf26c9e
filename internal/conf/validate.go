// conf/validate.go

package conf

import (
	"fmt"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateInputSettings(&settings.Input); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateQCSettings(&settings.QC); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateEnrichSettings(&settings.Enrich); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateInputSettings validates the input file settings
func validateInputSettings(settings *InputSettings) error {
	var errs []string

	if len(settings.Counts) == 0 {
		errs = append(errs, "input.counts must name at least one count file or glob")
	}

	if strings.TrimSpace(settings.Stations) == "" {
		errs = append(errs, "input.stations must name the station metadata file")
	}

	if settings.Workers < 0 {
		errs = append(errs, "input.workers must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("input settings errors: %v", errs)
	}
	return nil
}

// validateQCSettings validates the QC policy settings. Membership of each
// accepted code in the known enumeration is checked at pipeline start,
// where the enumeration lives.
func validateQCSettings(settings *QCSettings) error {
	var errs []string

	if len(settings.Accepted) == 0 {
		errs = append(errs, "qc.accepted must list at least one accepted code")
	}

	if strings.TrimSpace(settings.Revision) == "" {
		errs = append(errs, "qc.revision must label the QC policy revision in effect")
	}

	seen := make(map[string]bool)
	for _, code := range settings.Accepted {
		key := strings.ToUpper(strings.TrimSpace(code))
		if seen[key] {
			errs = append(errs, fmt.Sprintf("qc.accepted lists code %q more than once", code))
		}
		seen[key] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("qc settings errors: %v", errs)
	}
	return nil
}

// validateEnrichSettings validates the station join policy
func validateEnrichSettings(settings *EnrichSettings) error {
	switch settings.JoinPolicy {
	case JoinPolicyInner, JoinPolicyLeft:
		return nil
	default:
		return fmt.Errorf("enrich.joinpolicy must be %q or %q, got %q",
			JoinPolicyInner, JoinPolicyLeft, settings.JoinPolicy)
	}
}

// validateOutputSettings validates the output settings
func validateOutputSettings(settings *OutputSettings) error {
	var errs []string

	if strings.TrimSpace(settings.Path) == "" {
		errs = append(errs, "output.path must name the output directory")
	}

	if settings.SQLite.Enabled && strings.TrimSpace(settings.SQLite.Path) == "" {
		errs = append(errs, "output.sqlite.path must be set when the archive is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("output settings errors: %v", errs)
	}
	return nil
}
