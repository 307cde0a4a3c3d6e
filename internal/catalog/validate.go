package catalog

import (
	"fmt"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// ValidationError marks a catalog document that failed invariant checks.
// Callers can distinguish bad input from storage failures.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ValidateCareerPath checks the whole embedded hierarchy before it is
// persisted. Validation errors cover the invariants the browser form layer
// would otherwise be the only guard for: required fields, unique ids,
// resource variant rules and prerequisite referential integrity.
func ValidateCareerPath(cp *models.CareerPath) error {
	if cp == nil {
		return validationErrorf("career path is nil")
	}
	if cp.ID == "" {
		return validationErrorf("career path id is required")
	}
	if cp.Title == "" {
		return validationErrorf("career path %q: title is required", cp.ID)
	}

	lpIDs := make(map[string]bool, len(cp.LearningPaths))
	for _, lp := range cp.LearningPaths {
		if lp.ID == "" {
			return validationErrorf("career path %q: learning path id is required", cp.ID)
		}
		if lpIDs[lp.ID] {
			return validationErrorf("career path %q: duplicate learning path id %q", cp.ID, lp.ID)
		}
		lpIDs[lp.ID] = true
	}

	for _, lp := range cp.LearningPaths {
		if err := validateLearningPath(lp, lpIDs); err != nil {
			return fmt.Errorf("career path %q: %w", cp.ID, err)
		}
	}
	return nil
}

func validateLearningPath(lp *models.LearningPath, siblings map[string]bool) error {
	if lp.Title == "" {
		return validationErrorf("learning path %q: title is required", lp.ID)
	}
	if lp.Level != "" && !lp.Level.Valid() {
		return validationErrorf("learning path %q: invalid level %q", lp.ID, lp.Level)
	}

	// Prerequisites must resolve to sibling learning paths under the same
	// career path. A dangling reference is a data error, caught here rather
	// than at traversal time.
	for _, prereq := range lp.Prerequisites {
		if prereq == lp.ID {
			return validationErrorf("learning path %q: references itself as prerequisite", lp.ID)
		}
		if !siblings[prereq] {
			return validationErrorf("learning path %q: unknown prerequisite %q", lp.ID, prereq)
		}
	}

	skillIDs := make(map[string]bool, len(lp.Skills))
	for _, sk := range lp.Skills {
		if sk.ID == "" {
			return validationErrorf("learning path %q: skill id is required", lp.ID)
		}
		if skillIDs[sk.ID] {
			return validationErrorf("learning path %q: duplicate skill id %q", lp.ID, sk.ID)
		}
		skillIDs[sk.ID] = true
	}

	for _, sk := range lp.Skills {
		if err := validateSkill(sk, skillIDs); err != nil {
			return fmt.Errorf("learning path %q: %w", lp.ID, err)
		}
	}
	return nil
}

func validateSkill(sk *models.Skill, siblings map[string]bool) error {
	if sk.Title == "" {
		return validationErrorf("skill %q: title is required", sk.ID)
	}

	for _, prereq := range sk.Prerequisites {
		if prereq == sk.ID {
			return validationErrorf("skill %q: references itself as prerequisite", sk.ID)
		}
		if !siblings[prereq] {
			return validationErrorf("skill %q: unknown prerequisite %q", sk.ID, prereq)
		}
	}

	resourceIDs := make(map[string]bool, len(sk.Resources))
	for _, r := range sk.Resources {
		if r.ID == "" {
			return validationErrorf("skill %q: resource id is required", sk.ID)
		}
		if resourceIDs[r.ID] {
			return validationErrorf("skill %q: duplicate resource id %q", sk.ID, r.ID)
		}
		resourceIDs[r.ID] = true

		if err := ValidateResource(r); err != nil {
			return fmt.Errorf("skill %q: %w", sk.ID, err)
		}
	}
	return nil
}

// ValidateResource enforces the per-type variant rule: practice resources
// carry language + starter code, every other type carries a url.
func ValidateResource(r *models.Resource) error {
	if r.Title == "" {
		return validationErrorf("resource %q: title is required", r.ID)
	}
	if !r.Type.Valid() {
		return validationErrorf("resource %q: invalid type %q", r.ID, r.Type)
	}

	if r.IsPractice() {
		if r.Practice == nil {
			return validationErrorf("resource %q: practice resources require an exercise spec", r.ID)
		}
		if r.Practice.Language == "" {
			return validationErrorf("resource %q: practice language is required", r.ID)
		}
		if r.Practice.StarterCode == "" {
			return validationErrorf("resource %q: practice starter code is required", r.ID)
		}
		return nil
	}

	if r.URL == "" {
		return validationErrorf("resource %q: url is required for %s resources", r.ID, r.Type)
	}
	return nil
}
