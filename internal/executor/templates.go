package executor

import "fmt"

// TemplateKey names one rung of the priority ladder shared by the built-in
// deterministic executor and the Stage 8 fallback synthesizer (§4.5 S8,
// §4.6): "the built-in deterministic executor is a template renderer with
// the same priority ladder as Stage 8".
type TemplateKey string

const (
	TemplateHighChurnRisk  TemplateKey = "high_churn_risk"
	TemplateNewUser        TemplateKey = "new_user"
	TemplateLowEngagement  TemplateKey = "low_engagement"
	TemplateHighEngagement TemplateKey = "high_engagement"
	TemplateDefault        TemplateKey = "default"
)

// priorityLadder is the fixed selection order: high_churn_risk > new_user >
// low_engagement > high_engagement > default.
var priorityLadder = []TemplateKey{
	TemplateHighChurnRisk,
	TemplateNewUser,
	TemplateLowEngagement,
	TemplateHighEngagement,
	TemplateDefault,
}

var templateBodies = map[TemplateKey]string{
	TemplateHighChurnRisk:  "We noticed you haven't engaged in a while, so we picked %s to help you ease back in.",
	TemplateNewUser:        "Welcome — based on your profile so far, %s looks like the best starting point.",
	TemplateLowEngagement:  "To help keep momentum going, we've lined up %s for you today.",
	TemplateHighEngagement: "Since you've been consistently active, %s fits well with your current pace.",
	TemplateDefault:        "%s was selected for you based on your current activity.",
}

// SelectTemplate walks the priority ladder and returns the first key whose
// condition function reports true, falling back to TemplateDefault.
func SelectTemplate(conditions map[TemplateKey]bool) TemplateKey {
	for _, key := range priorityLadder {
		if conditions[key] {
			return key
		}
	}
	return TemplateDefault
}

// RenderTemplate interpolates the selected action's display name into the
// chosen template. It never fails: an unknown key falls back to
// TemplateDefault's body.
func RenderTemplate(key TemplateKey, displayName string) string {
	body, ok := templateBodies[key]
	if !ok {
		body = templateBodies[TemplateDefault]
	}
	return fmt.Sprintf(body, displayName)
}
