package controllers

import (
	"net/http"

	"github.com/SaeedKolahi/language-learners-manager/database"
	"github.com/SaeedKolahi/language-learners-manager/middleware"
	"github.com/SaeedKolahi/language-learners-manager/services"
	"github.com/gin-gonic/gin"
)

// ExportController serves the XML export of an operator's learners.
type ExportController struct {
	exportService *services.ExportService
}

func NewExportController(db *database.Database) *ExportController {
	return &ExportController{
		exportService: services.NewExportService(db.GetDB()),
	}
}

// LearnersXML streams the learner export document.
func (c *ExportController) LearnersXML(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payload, err := c.exportService.ExportLearnersXML(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="learners.xml"`)
	ctx.Data(http.StatusOK, "application/xml; charset=utf-8", payload)
}
