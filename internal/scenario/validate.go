package scenario

import (
	"fmt"
	"math"
)

const weightSumEpsilon = 1e-6

// Validate checks the invariants declared in §3: objective weights sum to
// the declared total, every referenced skill exists, every attribute's
// declared type is self-consistent with its range/enum, and the state
// schema contains no dimensional cycle. It returns the first violation
// found, wrapped as a *ValidationError.
func (s *Scenario) Validate() error {
	if s.ScenarioID == "" {
		return newValidationError("", "scenario_id", fmt.Errorf("required"))
	}
	if s.Version == "" {
		return newValidationError(s.ScenarioID, "version", fmt.Errorf("required"))
	}

	if err := s.validateWeights(); err != nil {
		return err
	}
	if err := s.validateSkillReferences(); err != nil {
		return err
	}
	if err := s.validateAttributeSchemas(); err != nil {
		return err
	}
	if _, err := TopologicalOrder(s.StateSchema.CoreDimensions); err != nil {
		return newValidationError(s.ScenarioID, "state_schema.core_dimensions", err)
	}
	if _, err := TopologicalOrder(s.StateSchema.ScenarioDimensions); err != nil {
		return newValidationError(s.ScenarioID, "state_schema.scenario_dimensions", err)
	}
	return nil
}

func (s *Scenario) validateWeights() error {
	want := s.Scoring.WeightSum
	if want == 0 {
		want = 1.0
	}
	var sum float64
	for _, obj := range s.Scoring.Objectives {
		sum += obj.Weight
	}
	if math.Abs(sum-want) > weightSumEpsilon {
		return newValidationError(s.ScenarioID, "scoring.objectives",
			fmt.Errorf("objective weights sum to %v, want %v", sum, want))
	}
	return nil
}

func (s *Scenario) validateSkillReferences() error {
	available := make(map[string]bool, len(s.Skills.Available))
	for _, skill := range s.Skills.Available {
		available[skill] = true
	}
	check := func(field, skillID string) error {
		if skillID == "" {
			return nil
		}
		if !available[skillID] {
			return newValidationError(s.ScenarioID, field, fmt.Errorf("skill %q is not declared in skills.available", skillID))
		}
		return nil
	}
	for _, at := range s.Actions.ActionTypes {
		if err := check(fmt.Sprintf("actions.action_types[%s].primary_skill", at.TypeID), at.PrimarySkill); err != nil {
			return err
		}
	}
	for typeID, mapping := range s.Skills.ByActionType {
		if err := check(fmt.Sprintf("skills.by_action_type[%s].primary", typeID), mapping.Primary); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("skills.by_action_type[%s].fallback", typeID), mapping.Fallback); err != nil {
			return err
		}
	}
	return check("skills.default_fallback", s.Skills.DefaultFallback)
}

func (s *Scenario) validateAttributeSchemas() error {
	for _, at := range s.Actions.ActionTypes {
		for _, attr := range at.Attributes {
			field := fmt.Sprintf("actions.action_types[%s].attributes[%s]", at.TypeID, attr.Name)
			switch attr.Type {
			case TypeString:
				// enum is optional for strings; min/max make no sense.
				if attr.Min != nil || attr.Max != nil {
					return newValidationError(s.ScenarioID, field, fmt.Errorf("string attribute cannot declare min/max"))
				}
			case TypeBoolean:
				if attr.Min != nil || attr.Max != nil || len(attr.Enum) > 0 {
					return newValidationError(s.ScenarioID, field, fmt.Errorf("boolean attribute cannot declare min/max/enum"))
				}
			case TypeFloat, TypeInteger:
				if len(attr.Enum) > 0 {
					return newValidationError(s.ScenarioID, field, fmt.Errorf("numeric attribute cannot declare enum"))
				}
				if attr.Min != nil && attr.Max != nil && *attr.Min > *attr.Max {
					return newValidationError(s.ScenarioID, field, fmt.Errorf("min %v exceeds max %v", *attr.Min, *attr.Max))
				}
			default:
				return newValidationError(s.ScenarioID, field, fmt.Errorf("unknown attribute type %q", attr.Type))
			}
		}
	}
	return nil
}
