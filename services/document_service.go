package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"docshare/models"
	"docshare/repositories"
	"docshare/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// allowedMimeTypes is the upload allow-list.
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/jpg":          true,
	"image/png":          true,
	"image/gif":          true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain":      true,
	"application/zip": true,
}

type UploadInput struct {
	File        multipart.File
	Filename    string
	Size        int64
	MimeType    string
	Description string
}

type DocumentStatsOutput struct {
	TotalDocuments int64 `json:"totalDocuments"`
	TotalSize      int64 `json:"totalSize"`
	RecentUploads  int64 `json:"recentUploads"`
}

// FileAccessOutput carries what a handler needs to stream a stored file.
type FileAccessOutput struct {
	Document     models.Document
	Path         string
	DownloadName string
}

type DocumentService interface {
	Upload(ctx context.Context, userID uint, in UploadInput) (models.Document, error)
	List(ctx context.Context, userID uint) ([]models.Document, error)
	Get(ctx context.Context, userID, docID uint) (models.Document, error)
	UpdateDescription(ctx context.Context, userID, docID uint, description string) (models.Document, error)
	// Delete soft-deletes the metadata row (authoritative) and then unlinks
	// the stored file best-effort; unlink failures are logged, never returned.
	Delete(ctx context.Context, userID, docID uint) error
	Stats(ctx context.Context, userID uint) (DocumentStatsOutput, error)
	DownloadInfo(ctx context.Context, userID, docID uint) (FileAccessOutput, error)
	ThumbnailInfo(ctx context.Context, userID, docID uint) (FileAccessOutput, error)
}

type documentService struct {
	documents     repositories.DocumentRepository
	uploadDir     string
	maxUploadSize int64
}

func NewDocumentService(documents repositories.DocumentRepository, uploadDir string, maxUploadSizeMB int) DocumentService {
	return &documentService{
		documents:     documents,
		uploadDir:     uploadDir,
		maxUploadSize: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (s *documentService) Upload(ctx context.Context, userID uint, in UploadInput) (models.Document, error) {
	if !allowedMimeTypes[in.MimeType] {
		return models.Document{}, newAppError(http.StatusBadRequest, fmt.Sprintf("File type not allowed: %s", in.MimeType), nil)
	}
	if in.Size > s.maxUploadSize {
		return models.Document{}, newAppError(http.StatusBadRequest, "File too large", nil)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to create upload directory", err)
	}

	// Stored name: timestamp + random id, keeping the original extension.
	ext := filepath.Ext(in.Filename)
	storedName := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
	dstPath := filepath.Join(s.uploadDir, storedName)

	out, err := os.Create(dstPath)
	if err != nil {
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to save file", err)
	}

	// Enforce the size cap on the stream too; Content-Length can lie.
	lr := &io.LimitedReader{R: in.File, N: s.maxUploadSize + 1}
	written, err := io.Copy(out, lr)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil || written > s.maxUploadSize {
		_ = os.Remove(dstPath)
		if written > s.maxUploadSize {
			return models.Document{}, newAppError(http.StatusBadRequest, "File too large", nil)
		}
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to write file", err)
	}

	doc := models.Document{
		UserID:           userID,
		Filename:         storedName,
		OriginalFilename: filepath.Base(in.Filename),
		FilePath:         dstPath,
		FileSize:         written,
		MimeType:         in.MimeType,
		Description:      utils.Sanitize(in.Description),
	}

	// Thumbnails are a convenience; failure to build one never fails the upload.
	if isImageMime(in.MimeType) {
		thumbPath := filepath.Join(s.uploadDir, "thumb_"+storedName+".jpg")
		if err := generateThumbnail(dstPath, thumbPath); err != nil {
			if utils.Sugar != nil {
				utils.Sugar.Warnf("thumbnail generation failed for %s: %v", storedName, err)
			}
		} else {
			doc.ThumbnailPath = thumbPath
		}
	}

	if err := s.documents.Create(ctx, nil, &doc); err != nil {
		_ = os.Remove(dstPath)
		if doc.ThumbnailPath != "" {
			_ = os.Remove(doc.ThumbnailPath)
		}
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to create document", err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, userID uint) ([]models.Document, error) {
	docs, err := s.documents.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list documents", err)
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, userID, docID uint) (models.Document, error) {
	doc, err := s.documents.GetByIDAndUser(ctx, nil, docID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Document{}, newAppError(http.StatusNotFound, "Document not found", nil)
		}
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to get document", err)
	}
	return doc, nil
}

func (s *documentService) UpdateDescription(ctx context.Context, userID, docID uint, description string) (models.Document, error) {
	rows, err := s.documents.UpdateByIDAndUser(ctx, nil, docID, userID, map[string]interface{}{
		"description": utils.Sanitize(description),
	})
	if err != nil {
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to update document", err)
	}
	if rows == 0 {
		return models.Document{}, newAppError(http.StatusNotFound, "Document not found", nil)
	}
	return s.Get(ctx, userID, docID)
}

func (s *documentService) Delete(ctx context.Context, userID, docID uint) error {
	doc, deleted, err := s.documents.SoftDeleteByIDAndUser(ctx, nil, docID, userID)
	if err != nil {
		return newAppError(http.StatusInternalServerError, "failed to delete document", err)
	}
	if !deleted {
		return newAppError(http.StatusNotFound, "Document not found", nil)
	}

	// The metadata transition above is authoritative. Physical cleanup is
	// advisory: a failed unlink is reported to the log and swallowed.
	for _, path := range []string{doc.FilePath, doc.ThumbnailPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			if utils.Sugar != nil {
				utils.Sugar.Warnf("failed to delete stored file %s: %v", path, err)
			}
		}
	}
	return nil
}

func (s *documentService) Stats(ctx context.Context, userID uint) (DocumentStatsOutput, error) {
	stats, err := s.documents.StatsByUser(ctx, nil, userID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return DocumentStatsOutput{}, newAppError(http.StatusInternalServerError, "failed to load stats", err)
	}
	return DocumentStatsOutput{
		TotalDocuments: stats.TotalDocuments,
		TotalSize:      stats.TotalSize,
		RecentUploads:  stats.RecentUploads,
	}, nil
}

func (s *documentService) DownloadInfo(ctx context.Context, userID, docID uint) (FileAccessOutput, error) {
	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return FileAccessOutput{}, err
	}
	if _, err := os.Stat(doc.FilePath); err != nil {
		return FileAccessOutput{}, newAppError(http.StatusNotFound, "File not found on server", nil)
	}
	return FileAccessOutput{Document: doc, Path: doc.FilePath, DownloadName: doc.OriginalFilename}, nil
}

func (s *documentService) ThumbnailInfo(ctx context.Context, userID, docID uint) (FileAccessOutput, error) {
	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return FileAccessOutput{}, err
	}
	if doc.ThumbnailPath == "" {
		return FileAccessOutput{}, newAppError(http.StatusNotFound, "No thumbnail for this document", nil)
	}
	if _, err := os.Stat(doc.ThumbnailPath); err != nil {
		return FileAccessOutput{}, newAppError(http.StatusNotFound, "No thumbnail for this document", nil)
	}
	return FileAccessOutput{Document: doc, Path: doc.ThumbnailPath, DownloadName: "thumb_" + doc.OriginalFilename + ".jpg"}, nil
}

func isImageMime(mime string) bool {
	switch mime {
	case "image/jpeg", "image/jpg", "image/png", "image/gif":
		return true
	}
	return false
}
