package controllers

import (
	"net/http"
	"strconv"

	"docshare/middleware"
	"docshare/services"
	"docshare/utils"

	"github.com/gin-gonic/gin"
)

type DocumentController struct {
	documents services.DocumentService
}

func NewDocumentController(documents services.DocumentService) *DocumentController {
	return &DocumentController{documents: documents}
}

// Upload accepts a multipart file plus an optional description.
func (d *DocumentController) Upload(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "missing file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "failed to read file")
		return
	}
	defer file.Close()

	doc, err := d.documents.Upload(ctx.Request.Context(), userID, services.UploadInput{
		File:        file,
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		MimeType:    fileHeader.Header.Get("Content-Type"),
		Description: ctx.PostForm("description"),
	})
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "success", doc)
}

// List returns all of the caller's documents, newest first.
func (d *DocumentController) List(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	docs, err := d.documents.List(ctx.Request.Context(), userID)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Success(ctx, docs)
}

// Get returns a single document owned by the caller.
func (d *DocumentController) Get(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	docID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	doc, err := d.documents.Get(ctx.Request.Context(), userID, docID)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Success(ctx, doc)
}

type updateDocumentRequest struct {
	Description *string `json:"description" binding:"required,max=1000"`
}

// Update changes the document's description.
func (d *DocumentController) Update(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	docID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	var req updateDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	doc, err := d.documents.UpdateDescription(ctx.Request.Context(), userID, docID, *req.Description)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Success(ctx, doc)
}

// Delete soft-deletes a document and removes its stored file.
func (d *DocumentController) Delete(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	docID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := d.documents.Delete(ctx.Request.Context(), userID, docID); err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"message": "Document deleted successfully"})
}

// Stats returns aggregate storage numbers for the caller.
func (d *DocumentController) Stats(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	stats, err := d.documents.Stats(ctx.Request.Context(), userID)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	utils.Success(ctx, stats)
}

// Download streams the original file back to its owner.
func (d *DocumentController) Download(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	docID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	access, err := d.documents.DownloadInfo(ctx.Request.Context(), userID, docID)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	ctx.FileAttachment(access.Path, access.DownloadName)
}

// Thumbnail streams the generated preview image, when one exists.
func (d *DocumentController) Thumbnail(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthorized")
		return
	}

	docID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	access, err := d.documents.ThumbnailInfo(ctx.Request.Context(), userID, docID)
	if err != nil {
		serviceError(ctx, err)
		return
	}

	ctx.File(access.Path)
}

// paramID parses a numeric path parameter, writing the error response itself.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid id")
		return 0, false
	}
	return uint(id), true
}
