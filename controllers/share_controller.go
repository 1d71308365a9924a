package controllers

import (
	"net/http"
	"os"

	"docshare/models"
	"docshare/services"
	"docshare/utils"

	"github.com/gin-gonic/gin"
)

// ShareController serves the public, unauthenticated share surface. The token
// is the only credential; every attempt against a resolved link is audited.
type ShareController struct {
	links services.LinkService
}

func NewShareController(links services.LinkService) *ShareController {
	return &ShareController{links: links}
}

type shareAccessRequest struct {
	Password string `json:"password"`
}

// Access handles POST /share/:token?action=view|download. A successful call
// consumes one view; denials return the constraint that failed.
func (s *ShareController) Access(ctx *gin.Context) {
	token := ctx.Param("token")
	action := ctx.DefaultQuery("action", "view")
	if action != "view" && action != "download" {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid action")
		return
	}

	var req shareAccessRequest
	// Body is optional; a missing or empty body means no password supplied.
	_ = ctx.ShouldBindJSON(&req)

	verification, err := s.links.VerifyAccess(ctx.Request.Context(), token, req.Password)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	if !verification.Valid {
		// Denials against a resolved link are audited too.
		if verification.Link != nil {
			_, _ = s.links.RecordAccess(ctx.Request.Context(), services.RecordAccessInput{
				LinkID:     verification.Link.ID,
				IPAddress:  ctx.ClientIP(),
				UserAgent:  ctx.Request.UserAgent(),
				AccessType: models.AccessTypeFailedPassword,
				Success:    false,
			})
		}
		utils.Error(ctx, http.StatusForbidden, 40300, verification.Reason)
		return
	}

	link := verification.Link
	document := verification.Document

	if action == "download" && !link.AllowDownload {
		utils.Error(ctx, http.StatusForbidden, 40301, "Download not allowed for this link")
		return
	}

	if _, err := os.Stat(document.FilePath); err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "File not found on server")
		return
	}

	consumed, err := s.links.RecordAccess(ctx.Request.Context(), services.RecordAccessInput{
		LinkID:     link.ID,
		IPAddress:  ctx.ClientIP(),
		UserAgent:  ctx.Request.UserAgent(),
		AccessType: action,
		Success:    true,
	})
	if err != nil {
		serviceError(ctx, err)
		return
	}
	if !consumed {
		// Another request took the last remaining view between verification
		// and consumption.
		utils.Error(ctx, http.StatusForbidden, 40300, services.ReasonMaxViewsReached)
		return
	}

	if action == "download" {
		ctx.FileAttachment(document.FilePath, document.OriginalFilename)
		return
	}

	utils.Success(ctx, gin.H{
		"document": gin.H{
			"filename":      document.OriginalFilename,
			"size":          document.FileSize,
			"type":          document.MimeType,
			"allowDownload": link.AllowDownload,
			"viewCount":     link.ViewCount + 1,
		},
	})
}

// Status handles GET /share/:token/status. Read-only; never consumes a view.
func (s *ShareController) Status(ctx *gin.Context) {
	token := ctx.Param("token")

	status, err := s.links.Status(ctx.Request.Context(), token)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Success(ctx, status)
}
