package api

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"postpilot/app/content"
	"postpilot/app/database"
	"postpilot/app/schedule"
	"postpilot/app/scoring"
)

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if users, err := h.users.ListUsers(c.Request.Context()); err == nil {
		health["users"] = len(users)
	}

	health["loaded_profiles"] = h.profiles.GetProfileCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "list_users", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	perUser := make([]map[string]interface{}, 0, len(users))
	for _, user := range users {
		total, processed, failed, err := h.items.GetItemStats(ctx, user.ID)
		if err != nil {
			slog.Error("Database error", "operation", "item_stats", "user", user.Name, "error", err)
			continue
		}
		perUser = append(perUser, map[string]interface{}{
			"user":            user.Name,
			"items_total":     total,
			"items_processed": processed,
			"items_failed":    failed,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": perUser,
	})
}

// APIRunPipeline triggers a pipeline run for one user or all users.
func (h *Handler) APIRunPipeline(c *gin.Context) {
	userName := c.Query("user")

	stats, err := h.runner.Run(c.Request.Context(), userName)
	if err != nil {
		slog.Error("Pipeline run failed", "user", userName, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// APIGetRecommendations scores the user's pending drafts and returns
// them ranked by composite score.
func (h *Handler) APIGetRecommendations(c *gin.Context) {
	ctx := c.Request.Context()

	user, profile, ok := h.resolveUser(c)
	if !ok {
		return
	}

	drafts, err := h.drafts.GetDraftsByStatus(ctx, user.ID, []string{database.DraftStatusDraft, database.DraftStatusReady})
	if err != nil {
		slog.Error("Database error", "operation", "get_drafts", "user", user.Name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	recommendations := make([]*scoring.Recommendation, 0, len(drafts))
	for i := range drafts {
		rec, err := h.engine.ScoreContent(ctx, user.ID, &drafts[i], profile)
		if err != nil {
			slog.Error("Scoring failed", "draft_id", drafts[i].ID, "error", err)
			continue
		}
		recommendations = append(recommendations, rec)
	}

	// Batch scoring does not guarantee order; rank explicitly
	sort.Slice(recommendations, func(i, j int) bool {
		return recommendations[i].CompositeScore > recommendations[j].CompositeScore
	})

	c.JSON(http.StatusOK, gin.H{
		"user":            user.Name,
		"recommendations": recommendations,
	})
}

func (h *Handler) APIGetPostingTimes(c *gin.Context) {
	user, _, ok := h.resolveUser(c)
	if !ok {
		return
	}

	slots, err := h.optimizer.OptimalPostingTimes(c.Request.Context(), user.ID)
	if err != nil {
		slog.Error("Slot computation failed", "user", user.Name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user.Name,
		"slots": slots,
	})
}

func (h *Handler) APIGetNextPostingTime(c *gin.Context) {
	user, profile, ok := h.resolveUser(c)
	if !ok {
		return
	}

	after := time.Now().UTC()
	if raw := c.Query("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "after must be RFC3339"})
			return
		}
		after = parsed
	}

	next := h.optimizer.FindNextOptimalTime(c.Request.Context(), user.ID, profile, after)

	c.JSON(http.StatusOK, next)
}

// APIGetDraftPrediction returns the engagement forecast for one draft.
func (h *Handler) APIGetDraftPrediction(c *gin.Context) {
	user, _, ok := h.resolveUser(c)
	if !ok {
		return
	}

	draft, err := h.drafts.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_draft", "draft_id", c.Param("id"), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if draft == nil || draft.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown draft"})
		return
	}

	prediction, err := h.predictor.Predict(c.Request.Context(), user.ID, draft)
	if err != nil {
		slog.Error("Prediction failed", "draft_id", draft.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

type validateScheduleRequest struct {
	Times []time.Time `json:"times" binding:"required"`
}

func (h *Handler) APIValidateSchedule(c *gin.Context) {
	_, profile, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req validateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, schedule.ValidateSchedule(profile, req.Times))
}

type planScheduleRequest struct {
	DraftIDs []string   `json:"draft_ids" binding:"required"`
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
}

// APIPlanSchedule places drafts (highest priority first) into the
// user's optimal slots within the requested window.
func (h *Handler) APIPlanSchedule(c *gin.Context) {
	user, profile, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req planScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now().UTC()
	if req.Start != nil {
		start = *req.Start
	}
	end := start.Add(7 * 24 * time.Hour)
	if req.End != nil {
		end = *req.End
	}

	assignments, err := h.optimizer.PlanSchedule(c.Request.Context(), user.ID, profile, req.DraftIDs, start, end)
	if err != nil {
		slog.Error("Schedule planning failed", "user", user.Name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	for _, assignment := range assignments {
		if err := h.drafts.UpdateDraftSchedule(c.Request.Context(), assignment.DraftID, assignment.Time); err != nil {
			slog.Error("Failed to persist schedule assignment", "draft_id", assignment.DraftID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user.Name,
		"assignments": assignments,
		"skipped":     len(req.DraftIDs) - len(assignments),
	})
}

type weightsFeedbackRequest struct {
	Accepted scoring.FactorAverages `json:"accepted"`
	Rejected scoring.FactorAverages `json:"rejected"`
}

func (h *Handler) APIUpdateScoringWeights(c *gin.Context) {
	user, _, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req weightsFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	weights, err := h.engine.UpdateWeights(c.Request.Context(), user.ID, req.Accepted, req.Rejected)
	if err != nil {
		slog.Error("Weight update failed", "user", user.Name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user.Name,
		"weights": gin.H{
			"source_credibility":   weights.SourceCredibility,
			"topic_relevance":      weights.TopicRelevance,
			"timeliness":           weights.Timeliness,
			"engagement_potential": weights.EngagementPotential,
		},
	})
}

// resolveUser maps the :name route parameter onto a user row and its
// cached profile, responding 404 itself when either is missing.
func (h *Handler) resolveUser(c *gin.Context) (*database.User, *content.Profile, bool) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return nil, nil, false
	}

	profile, err := h.profiles.GetProfile(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user profile"})
		return nil, nil, false
	}

	user, err := h.users.GetUserByName(c.Request.Context(), name)
	if err != nil {
		slog.Error("Database error", "operation", "get_user", "user", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return nil, nil, false
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not synced yet"})
		return nil, nil, false
	}

	return user, profile, true
}
