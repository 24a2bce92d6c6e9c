// Package agent is the text-generation capability boundary. Each role is a
// stateless prompt-in/text-out function; the router owns all state around the
// call.
package agent

import "context"

type Role string

const (
	RoleGreeting Role = "greeting"
	RoleMood     Role = "mood"
	RoleGlucose  Role = "glucose"
	RoleFood     Role = "food"
	RolePlanner  Role = "planner"
	RoleGeneral  Role = "general"
)

var roleInstructions = map[Role]string{
	RoleGreeting: "You validate user IDs and provide a personalized welcome message. " +
		"Retrieve the user's first name and city from the prompt and greet them personally " +
		"(e.g., 'Hello, [Name] from [City]!'). If the ID is invalid, prompt the user to " +
		"re-enter a valid ID and block further interaction.",
	RoleMood: "You record the user's emotional state and analyze trends. Extract a single " +
		"mood label (happy, sad, excited, tired, etc.) from the user's input and acknowledge " +
		"it (e.g., 'Noted. Feeling happy today!').",
	RoleGlucose: "You log Continuous Glucose Monitor readings. Validate the input glucose " +
		"reading. If the reading is outside 80-300 mg/dL, issue an immediate, bold " +
		"**CRITICAL ALERT**.",
	RoleFood: "You record meals and snacks. Take a free-text meal description, estimate and " +
		"categorize the meal into grams of Carbs, Protein, and Fat, display the result in a " +
		"markdown table, and acknowledge the log (e.g., 'Meal logged successfully: [meal]').",
	RolePlanner: "You generate adaptive meal plans based on user health data and constraints. " +
		"Analyze the provided conditions, dietary preference, and CGM reading. If the CGM " +
		"reading is high or low, generate the next 3 meals specifically designed to bring " +
		"glucose under control. The plan MUST be a 3-meal plan (Breakfast, Lunch, Dinner). " +
		"Respect all dietary preferences and medical constraints, and display the plan with " +
		"estimated macros (Carbs/Protein/Fat) in a markdown table.",
	RoleGeneral: "You handle general queries without losing the main flow context. Answer " +
		"unrelated user questions gracefully, then route the user back with a closing " +
		"sentence like: 'Now, what would you like to log or plan next?'",
}

// Instructions returns the system prompt for a role. Unknown roles get an
// empty instruction block, which the clients treat as plain completion.
func Instructions(role Role) string {
	return roleInstructions[role]
}

// Invoker runs one role against one prompt and returns its text. The call is
// synchronous and carries no caller-imposed retry; resilience wrappers belong
// to the integration layer.
type Invoker interface {
	Invoke(ctx context.Context, role Role, prompt string) (string, error)
}
