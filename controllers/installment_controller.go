package controllers

import (
	"net/http"

	"github.com/SaeedKolahi/language-learners-manager/database"
	"github.com/SaeedKolahi/language-learners-manager/middleware"
	"github.com/SaeedKolahi/language-learners-manager/services"
	"github.com/gin-gonic/gin"
)

// InstallmentController handles the installment views, payment recording
// and installment notes.
type InstallmentController struct {
	installmentService *services.InstallmentService
}

func NewInstallmentController(db *database.Database) *InstallmentController {
	return &InstallmentController{
		installmentService: services.NewInstallmentService(db.GetDB()),
	}
}

// ListUpcoming returns unpaid installments that are overdue or due soon.
func (c *InstallmentController) ListUpcoming(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rows, err := c.installmentService.ListUpcoming(userID, ctx.Query("filter"), ctx.Query("search"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rows)
}

// ListPaid returns recorded payments, newest first.
func (c *InstallmentController) ListPaid(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rows, err := c.installmentService.ListPaid(userID, ctx.Query("search"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rows)
}

// RecordPayment stores a payment date and note on an installment. An
// empty date resets it to pending.
func (c *InstallmentController) RecordPayment(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	installmentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var dto services.RecordPaymentDTO
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	installment, err := c.installmentService.RecordPayment(installmentID, userID, dto)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, installment)
}

// RemovePayment resets a paid installment back to pending.
func (c *InstallmentController) RemovePayment(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	installmentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	installment, err := c.installmentService.RemovePayment(installmentID, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, installment)
}

type saveNoteRequest struct {
	Note string `json:"note"`
}

// SaveNote stores an installment's free-text note.
func (c *InstallmentController) SaveNote(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	installmentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req saveNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	installment, err := c.installmentService.SaveNote(installmentID, userID, req.Note)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, installment)
}
