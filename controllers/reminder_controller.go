package controllers

import (
	"net/http"

	"github.com/SaeedKolahi/language-learners-manager/database"
	"github.com/SaeedKolahi/language-learners-manager/middleware"
	"github.com/SaeedKolahi/language-learners-manager/services"
	"github.com/gin-gonic/gin"
)

// ReminderController handles follow-up reminders.
type ReminderController struct {
	reminderService *services.ReminderService
}

func NewReminderController(db *database.Database) *ReminderController {
	return &ReminderController{
		reminderService: services.NewReminderService(db.GetDB()),
	}
}

// List returns the operator's reminders, filtered by view.
func (c *ReminderController) List(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reminders, err := c.reminderService.List(userID, ctx.Query("filter"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reminders)
}

// Create adds a reminder for a learner.
func (c *ReminderController) Create(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var dto services.SaveReminderDTO
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reminder, err := c.reminderService.Create(userID, dto)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, reminder)
}

// Complete closes a reminder.
func (c *ReminderController) Complete(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	reminderID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	reminder, err := c.reminderService.MarkCompleted(reminderID, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reminder)
}
