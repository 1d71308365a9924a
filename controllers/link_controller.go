package controllers

import (
	"net/http"

	"docshare/config"
	"docshare/middleware"
	"docshare/services"
	"docshare/utils"

	"github.com/gin-gonic/gin"
)

type LinkController struct {
	links services.LinkService
}

func NewLinkController(links services.LinkService) *LinkController {
	return &LinkController{links: links}
}

type createLinkRequest struct {
	DocumentID    uint   `json:"documentId" binding:"required"`
	Password      string `json:"password" binding:"omitempty,min=4,max=100"`
	ExpiresIn     *int   `json:"expiresIn" binding:"omitempty,min=1"`
	MaxViews      *int   `json:"maxViews" binding:"omitempty,min=1"`
	AllowDownload *bool  `json:"allowDownload"`
}

// Create issues a new share link for a document the caller owns.
func (l *LinkController) Create(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	var req createLinkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	cfg := config.Get()
	if req.ExpiresIn != nil && *req.ExpiresIn > cfg.LinkMaxExpiryHours {
		utils.Error(ctx, http.StatusBadRequest, 40013, "expiresIn exceeds the maximum allowed")
		return
	}

	link, err := l.links.CreateLink(ctx.Request.Context(), userID, services.CreateLinkInput{
		DocumentID:     req.DocumentID,
		Password:       req.Password,
		ExpiresInHours: req.ExpiresIn,
		MaxViews:       req.MaxViews,
		AllowDownload:  req.AllowDownload,
	})
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{
		"link":     link,
		"shareUrl": cfg.ShareBaseURL + "/share/" + link.Token,
	})
}

// List returns all of the caller's links with joined document metadata.
func (l *LinkController) List(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	links, err := l.links.ListLinks(ctx.Request.Context(), userID)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Success(ctx, links)
}

// Deactivate revokes a link. The link row and its logs are kept.
func (l *LinkController) Deactivate(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	linkID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	deactivated, err := l.links.DeactivateLink(ctx.Request.Context(), linkID, userID)
	if err != nil {
		serviceError(ctx, err)
		return
	}
	if !deactivated {
		utils.Error(ctx, http.StatusNotFound, 40400, "Link not found or access denied")
		return
	}

	utils.Success(ctx, gin.H{"message": "Link deactivated successfully"})
}

// AccessLogs returns the newest audit entries for a link the caller owns.
func (l *LinkController) AccessLogs(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	linkID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	logs, err := l.links.AccessLogs(ctx.Request.Context(), linkID, userID)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Success(ctx, logs)
}
