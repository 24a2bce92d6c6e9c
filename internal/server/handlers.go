package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"healthmate/backend/internal/agent"
	"healthmate/backend/internal/extract"
	"healthmate/backend/internal/intent"
	"healthmate/backend/internal/store"
)

type agentRequest struct {
	UserID  string `json:"user_id"`
	Intent  string `json:"intent"`
	Message string `json:"message"`
}

const (
	invalidIDResponse      = "Invalid ID. Please use a valid ID, such as '1001', for this demo."
	validateFirstResponse  = "Please validate your User ID before proceeding with logs or plans."
	unknownIntentResponse  = "Unknown intent. How can I assist you today?"
	agentFailureDetail     = "Agent capability is unavailable right now. Please try again."
	defaultLogListingLimit = 50
	maxLogListingLimit     = 500
)

// runAgent is the session gate and dispatcher. Every request re-validates the
// user against the profile store; only the validate intent tolerates an
// absent profile. Persistence around the agent call is best-effort: the
// conversational response is returned even when extraction misses or a
// storage write fails.
func (a *App) runAgent(c *gin.Context) {
	var payload agentRequest
	if !mustJSON(c, &payload) {
		return
	}

	ctx := c.Request.Context()
	userID := strings.TrimSpace(payload.UserID)
	message := payload.Message

	resolved, known := intent.Parse(payload.Intent)
	if intent.IsAuto(payload.Intent) {
		resolved, known = intent.Detect(message), true
	}

	if known && resolved == intent.Validate {
		a.handleValidate(c, userID)
		return
	}

	// Hard gate: no agent call and no log write for unknown users, so the
	// event log never references a profile that does not exist.
	profile, err := a.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("profile lookup failed for user %s: %v", userID, err)
		writeError(c, http.StatusInternalServerError, "Failed to load user profile")
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"agent_response": validateFirstResponse})
		return
	}

	if !known {
		c.JSON(http.StatusOK, gin.H{"agent_response": unknownIntentResponse})
		return
	}

	switch resolved {
	case intent.LogGlucose:
		a.handleLogGlucose(c, profile, message)
	case intent.GeneratePlan:
		a.handleGeneratePlan(c, profile)
	case intent.LogFood:
		a.handleLogFood(c, profile, message)
	case intent.LogMood:
		a.handleLogMood(c, profile, message)
	case intent.GeneralQuery:
		a.handleGeneralQuery(c, profile, message)
	default:
		c.JSON(http.StatusOK, gin.H{"agent_response": unknownIntentResponse})
	}
}

func (a *App) handleValidate(c *gin.Context, userID string) {
	profile, err := a.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("profile lookup failed for user %s: %v", userID, err)
		writeError(c, http.StatusInternalServerError, "Failed to load user profile")
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"agent_response": invalidIDResponse})
		return
	}

	prompt := fmt.Sprintf(
		"My user ID is %s. Please validate me. My name is %s and I live in %s.",
		profile.UserID,
		profile.FirstName,
		profile.City,
	)
	text, err := a.ai.Invoke(c.Request.Context(), agent.RoleGreeting, prompt)
	if err != nil {
		a.writeAgentFailure(c, agent.RoleGreeting, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_response": text, "user_data": profile})
}

func (a *App) handleLogGlucose(c *gin.Context, profile *store.UserProfile, message string) {
	ctx := c.Request.Context()

	text, err := a.ai.Invoke(ctx, agent.RoleGlucose, message)
	if err != nil {
		a.writeAgentFailure(c, agent.RoleGlucose, err)
		return
	}

	value, found := extract.Glucose(message)
	if found {
		a.persistReading(ctx, profile.UserID, store.LogGlucose, nil, &value)
		profile = a.refreshProfile(ctx, profile)
	}
	c.JSON(http.StatusOK, gin.H{"agent_response": text, "user_data": profile})
}

func (a *App) handleGeneratePlan(c *gin.Context, profile *store.UserProfile) {
	prompt := fmt.Sprintf(
		"Generate an adaptive 3-meal plan. User ID: %s. Medical Conditions: %s. "+
			"Dietary Preference: %s. Physical Limitations: %s. Latest CGM Reading: %s mg/dL.",
		profile.UserID,
		orPlaceholder(profile.MedicalConditions),
		orPlaceholder(profile.DietaryPreference),
		orPlaceholder(profile.PhysicalLimitations),
		cgmString(profile.LatestCGM),
	)
	text, err := a.ai.Invoke(c.Request.Context(), agent.RolePlanner, prompt)
	if err != nil {
		a.writeAgentFailure(c, agent.RolePlanner, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_response": text, "user_data": profile})
}

func (a *App) handleLogFood(c *gin.Context, profile *store.UserProfile, message string) {
	ctx := c.Request.Context()

	text, err := a.ai.Invoke(ctx, agent.RoleFood, message)
	if err != nil {
		a.writeAgentFailure(c, agent.RoleFood, err)
		return
	}

	// The raw meal text is the payload; every food log appends a new row.
	if _, err := a.store.AppendLog(ctx, profile.UserID, store.LogFood, &message, nil); err != nil {
		log.Printf("food log append failed for user %s: %v", profile.UserID, err)
	}
	c.JSON(http.StatusOK, gin.H{"agent_response": text, "user_data": profile})
}

func (a *App) handleLogMood(c *gin.Context, profile *store.UserProfile, message string) {
	ctx := c.Request.Context()

	text, err := a.ai.Invoke(ctx, agent.RoleMood, message)
	if err != nil {
		a.writeAgentFailure(c, agent.RoleMood, err)
		return
	}

	if mood, found := extract.Mood(message); found {
		a.persistReading(ctx, profile.UserID, store.LogMood, &mood, nil)
	}
	profile = a.refreshProfile(ctx, profile)
	c.JSON(http.StatusOK, gin.H{"agent_response": text, "user_data": profile})
}

func (a *App) handleGeneralQuery(c *gin.Context, profile *store.UserProfile, message string) {
	text, err := a.ai.Invoke(c.Request.Context(), agent.RoleGeneral, message)
	if err != nil {
		a.writeAgentFailure(c, agent.RoleGeneral, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_response": text, "user_data": profile})
}

// persistReading appends the event row and updates the profile snapshot.
// Failures are logged and swallowed: the in-flight agent response still goes
// out, only the persisted state is left behind.
func (a *App) persistReading(ctx context.Context, userID string, logType store.LogType, valueText *string, valueInt *int) {
	if _, err := a.store.AppendLog(ctx, userID, logType, valueText, valueInt); err != nil {
		log.Printf("%s log append failed for user %s: %v", logType, userID, err)
		return
	}
	switch logType {
	case store.LogGlucose:
		if err := a.store.UpdateGlucose(ctx, userID, *valueInt); err != nil {
			log.Printf("latest_cgm update failed for user %s: %v", userID, err)
		}
	case store.LogMood:
		if err := a.store.UpdateMood(ctx, userID, *valueText); err != nil {
			log.Printf("mood update failed for user %s: %v", userID, err)
		}
	}
}

// refreshProfile re-reads the snapshot after a write; on failure the stale
// profile is kept so the response is never dropped.
func (a *App) refreshProfile(ctx context.Context, stale *store.UserProfile) *store.UserProfile {
	updated, err := a.store.GetUser(ctx, stale.UserID)
	if err != nil || updated == nil {
		if err != nil {
			log.Printf("profile refresh failed for user %s: %v", stale.UserID, err)
		}
		return stale
	}
	return updated
}

func (a *App) writeAgentFailure(c *gin.Context, role agent.Role, err error) {
	log.Printf("%s agent invocation failed: %v", role, err)
	writeError(c, http.StatusBadGateway, agentFailureDetail)
}

func (a *App) listUserLogs(c *gin.Context) {
	ctx := c.Request.Context()
	userID := strings.TrimSpace(c.Param("user_id"))

	profile, err := a.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("profile lookup failed for user %s: %v", userID, err)
		writeError(c, http.StatusInternalServerError, "Failed to load user profile")
		return
	}
	if profile == nil {
		writeError(c, http.StatusNotFound, "User not found")
		return
	}

	var logType store.LogType
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		parsed, ok := store.ParseLogType(raw)
		if !ok {
			writeError(c, http.StatusBadRequest, "type must be one of GLUCOSE, MOOD, FOOD")
			return
		}
		logType = parsed
	}

	limit := defaultLogListingLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > maxLogListingLimit {
			parsed = maxLogListingLimit
		}
		limit = parsed
	}

	entries, err := a.store.ListLogs(ctx, userID, logType, limit)
	if err != nil {
		log.Printf("log listing failed for user %s: %v", userID, err)
		writeError(c, http.StatusInternalServerError, "Failed to load logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

func cgmString(value *int) string {
	if value == nil {
		return "N/A"
	}
	return strconv.Itoa(*value)
}
