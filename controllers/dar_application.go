package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"dar-review-api/models"
	"dar-review-api/services"
	"dar-review-api/stores"
	"dar-review-api/utils"
	"dar-review-api/workflow"

	"github.com/gin-gonic/gin"
)

// DarApplicationController serves the data access request endpoints.
type DarApplicationController struct {
	apps      *services.ApplicationService
	reminders *services.ReminderService
}

func NewDarApplicationController(apps *services.ApplicationService, reminders *services.ReminderService) *DarApplicationController {
	return &DarApplicationController{apps: apps, reminders: reminders}
}

// CreateApplication creates a draft owned by the current user.
func (h *DarApplicationController) CreateApplication(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var content models.ApplicationContent
	if err := c.ShouldBindJSON(&content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application content", "details": err.Error()})
		return
	}

	app, err := h.apps.CreateDraft(c.Request.Context(), userID, content)
	if err != nil {
		writeLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "application": app})
}

// GetApplication returns the application header and content, plus the events the current
// state accepts.
func (h *DarApplicationController) GetApplication(c *gin.Context) {
	id, ok := applicationIDParam(c)
	if !ok {
		return
	}

	app, err := h.apps.Get(c.Request.Context(), id)
	if err != nil {
		writeLifecycleError(c, err)
		return
	}
	content, err := h.apps.GetContent(c.Request.Context(), id)
	if err != nil && !errors.Is(err, workflow.ErrNotFound) {
		writeLifecycleError(c, err)
		return
	}
	if err == nil {
		app.Content = &content
	}

	allowed := workflow.EventsFrom(app.State)
	if allowed == nil {
		allowed = []workflow.Event{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"application":    app,
		"allowed_events": allowed,
		"terminal":       app.IsTerminal(),
	})
}

// UpdateContent replaces the content of an application that accepts edits.
func (h *DarApplicationController) UpdateContent(c *gin.Context) {
	id, ok := applicationIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var content models.ApplicationContent
	if err := c.ShouldBindJSON(&content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application content", "details": err.Error()})
		return
	}

	app, err := h.apps.EditContent(c.Request.Context(), id, userID, content)
	if err != nil {
		writeLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}

// PerformAction applies the event named in the path. Revision request events take the
// revision request as the JSON body.
func (h *DarApplicationController) PerformAction(c *gin.Context) {
	id, ok := applicationIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := workflow.ParseEvent(c.Param("event"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payload *models.RevisionRequest
	var request models.RevisionRequest
	if err := c.ShouldBindJSON(&request); err == nil {
		payload = &request
	} else if !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid revision request", "details": err.Error()})
		return
	}

	app, err := h.apps.PerformAction(c.Request.Context(), id, event, userID, payload)
	if err != nil {
		writeLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}

// ListActions returns the audit trail; ?order=asc|desc.
func (h *DarApplicationController) ListActions(c *gin.Context) {
	id, ok := applicationIDParam(c)
	if !ok {
		return
	}
	order, ok := stores.ParseSortOrder(c.Query("order"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be asc or desc"})
		return
	}

	actions, err := h.apps.ListActions(c.Request.Context(), id, order)
	if err != nil {
		writeLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "actions": actions, "total": len(actions)})
}

func (h *DarApplicationController) ListRevisionRequests(c *gin.Context) {
	id, ok := applicationIDParam(c)
	if !ok {
		return
	}

	requests, err := h.apps.GetRevisionRequests(c.Request.Context(), id)
	if err != nil {
		writeLifecycleError(c, err)
		return
	}

	views := make([]revisionRequestView, len(requests))
	for i, request := range requests {
		pending := request.SectionsNeedingRevision()
		if pending == nil {
			pending = []string{}
		}
		views[i] = revisionRequestView{RevisionRequest: request, PendingSections: pending}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "revision_requests": views, "total": len(views)})
}

// revisionRequestView adds the sections the applicant still has to revise.
type revisionRequestView struct {
	models.RevisionRequest
	PendingSections []string `json:"pending_sections"`
}

// ListAttention returns applications in the requested states with their latest action;
// ?states=REP_REVIEW,DAC_REVIEW. Defaults to every state that waits on someone.
func (h *DarApplicationController) ListAttention(c *gin.Context) {
	states := services.ReminderStates()
	if raw := utils.SplitList(c.Query("states")); len(raw) > 0 {
		states = states[:0]
		for _, value := range raw {
			state, err := workflow.ParseState(value)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			states = append(states, state)
		}
	}

	items, err := h.reminders.ListApplicationsNeedingAttention(c.Request.Context(), states)
	if err != nil {
		writeLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items, "total": len(items)})
}

func currentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok && userID > 0
}

func applicationIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return 0, false
	}
	return id, true
}

// writeLifecycleError maps lifecycle errors onto HTTP responses. System errors are logged
// and answered with a generic message.
func writeLifecycleError(c *gin.Context, err error) {
	var contentErr *workflow.ContentError
	var transitionErr *workflow.TransitionError

	switch {
	case errors.Is(err, services.ErrMissingActor):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRevisionRequestRequired),
		errors.Is(err, services.ErrUnexpectedRevisionRequest),
		errors.Is(err, workflow.ErrUnknownState),
		errors.Is(err, workflow.ErrUnknownEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &contentErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    workflow.ErrContentIncomplete.Error(),
			"findings": contentErr.Findings,
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"state": transitionErr.State,
			"event": transitionErr.Event,
			"stale": transitionErr.Stale,
		})
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
	default:
		log.Printf("[dar] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
