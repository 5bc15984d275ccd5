package controllers

import (
	"net/http"
	"strconv"

	"github.com/SaeedKolahi/language-learners-manager/database"
	"github.com/SaeedKolahi/language-learners-manager/middleware"
	"github.com/SaeedKolahi/language-learners-manager/services"
	"github.com/gin-gonic/gin"
)

// LearnerController handles learner CRUD, the plan edit flow and the
// manual amount override endpoint.
type LearnerController struct {
	learnerService     *services.LearnerService
	installmentService *services.InstallmentService
}

func NewLearnerController(db *database.Database) *LearnerController {
	return &LearnerController{
		learnerService:     services.NewLearnerService(db.GetDB()),
		installmentService: services.NewInstallmentService(db.GetDB()),
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// List returns the operator's learners with per-plan payment counters.
func (c *LearnerController) List(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rows, err := c.learnerService.List(userID, ctx.Query("search"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rows)
}

// Get returns one learner.
func (c *LearnerController) Get(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	learnerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	learner, err := c.learnerService.GetByID(learnerID, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, learner)
}

// Create adds a learner; when a plan is declared the schedule is
// generated in the same transaction.
func (c *LearnerController) Create(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var dto services.SaveLearnerDTO
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	dto.UserID = userID

	learner, err := c.learnerService.Create(dto)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, learner)
}

// Update edits a learner and reconciles the installment schedule when the
// plan parameters changed.
func (c *LearnerController) Update(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	learnerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var dto services.SaveLearnerDTO
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	dto.UserID = userID

	learner, err := c.learnerService.Update(learnerID, userID, dto)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, learner)
}

// Delete removes a learner and everything attached to it.
func (c *LearnerController) Delete(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	learnerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.learnerService.Delete(learnerID, userID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Learner deleted"})
}

// History returns the learner's narrated plan adjustment history.
func (c *LearnerController) History(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	learnerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	entries, err := c.learnerService.History(learnerID, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, entries)
}

// SaveAmounts applies manually typed amounts to the learner's unpaid
// installments.
func (c *LearnerController) SaveAmounts(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	learnerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var dto services.ManualAmountsDTO
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := c.installmentService.SaveManualAmounts(learnerID, userID, dto); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Amounts saved"})
}
