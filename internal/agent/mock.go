package agent

import (
	"context"
	"fmt"
	"strings"
)

// MockInvoker returns deterministic canned text per role. It backs tests and
// keyless local runs where no model endpoint is available.
type MockInvoker struct{}

func (MockInvoker) Invoke(_ context.Context, role Role, prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		trimmed = "No input provided."
	}

	switch role {
	case RoleGreeting:
		return "Hello! Your ID checks out. " + trimmed, nil
	case RoleMood:
		return "Noted. Thanks for sharing how you feel.", nil
	case RoleGlucose:
		return "Reading received. Keep monitoring your glucose.", nil
	case RoleFood:
		return "Meal logged successfully: " + trimmed, nil
	case RolePlanner:
		return "Here is a 3-meal plan (Breakfast, Lunch, Dinner) tailored to your profile.", nil
	case RoleGeneral:
		return "Mock response: " + trimmed + " Now, what would you like to log or plan next?", nil
	}
	return fmt.Sprintf("Mock response (%s): %s", role, trimmed), nil
}
