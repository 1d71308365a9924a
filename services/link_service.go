package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"docshare/models"
	"docshare/repositories"
	"docshare/utils"

	"gorm.io/gorm"
)

// Denial reasons returned by VerifyAccess. The token already gates access, so
// naming the failed constraint leaks nothing useful to an attacker.
const (
	ReasonLinkNotFound     = "Link not found"
	ReasonLinkExpired      = "Link has expired"
	ReasonMaxViewsReached  = "Maximum views reached"
	ReasonPasswordRequired = "Password required"
	ReasonInvalidPassword  = "Invalid password"
	ReasonDocumentNotFound = "Document not found"
)

// msgLinkNotOwned deliberately conflates "does not exist" with "not yours" so
// callers cannot probe other users' resource IDs.
const (
	msgDocumentNotOwned = "Document not found or access denied"
	msgLinkNotOwned     = "Link not found or access denied"
)

type CreateLinkInput struct {
	DocumentID uint
	// Optional constraints. Bounds (password length, expiry cap, positive
	// max views) are the validation layer's job, not this engine's.
	Password       string
	ExpiresInHours *int
	MaxViews       *int
	AllowDownload  *bool
}

// VerifyResult is the outcome of a read-only access check. Link is attached
// whenever the token resolved, even for denials, so the caller can log the
// failed attempt against it.
type VerifyResult struct {
	Valid    bool
	Reason   string
	Link     *models.SharedLink
	Document *models.Document
}

type RecordAccessInput struct {
	LinkID     uint
	IPAddress  string
	UserAgent  string
	AccessType string // view, download or failed_password
	Success    bool
}

// LinkStatus is the cheap public status view: no logging, no mutation.
type LinkStatus struct {
	Valid            bool       `json:"valid"`
	RequiresPassword bool       `json:"requiresPassword"`
	ExpiresAt        *time.Time `json:"expiresAt"`
	ViewCount        int        `json:"viewCount"`
	MaxViews         *int       `json:"maxViews"`
	AllowDownload    bool       `json:"allowDownload"`
}

// LinkSummary is the owner-facing list row, joined with document metadata.
// IsExpired is computed at read time and never stored.
type LinkSummary struct {
	ID            uint       `json:"id"`
	DocumentID    uint       `json:"documentId"`
	Filename      string     `json:"filename"`
	FileSize      int64      `json:"fileSize"`
	MimeType      string     `json:"mimeType"`
	Token         string     `json:"token"`
	HasPassword   bool       `json:"hasPassword"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	MaxViews      *int       `json:"maxViews"`
	ViewCount     int        `json:"viewCount"`
	AllowDownload bool       `json:"allowDownload"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastAccessed  *time.Time `json:"lastAccessed"`
	IsExpired     bool       `json:"isExpired"`
}

// LinkService is the shareable-link lifecycle and access-verification engine.
// VerifyAccess is read-only and idempotent; RecordAccess is the mutating act
// of consuming an access. Keeping them apart lets the status endpoint reuse
// verification without burning a view.
type LinkService interface {
	CreateLink(ctx context.Context, userID uint, in CreateLinkInput) (models.SharedLink, error)
	ListLinks(ctx context.Context, userID uint) ([]LinkSummary, error)
	VerifyAccess(ctx context.Context, token, password string) (VerifyResult, error)
	// RecordAccess appends one audit row and, for successful view/download
	// attempts, consumes one view. Returns whether a view was consumed; a
	// false return for a success attempt means the max-views guard lost the
	// race and the caller must deny.
	RecordAccess(ctx context.Context, in RecordAccessInput) (bool, error)
	DeactivateLink(ctx context.Context, linkID, userID uint) (bool, error)
	AccessLogs(ctx context.Context, linkID, userID uint) ([]models.AccessLog, error)
	Status(ctx context.Context, token string) (LinkStatus, error)
}

// accessLogLimit caps how many audit rows the owner endpoint returns.
const accessLogLimit = 100

type linkService struct {
	txManager repositories.TxManager
	links     repositories.LinkRepository
	documents repositories.DocumentRepository
	logs      repositories.AccessLogRepository
}

func NewLinkService(
	txManager repositories.TxManager,
	links repositories.LinkRepository,
	documents repositories.DocumentRepository,
	logs repositories.AccessLogRepository,
) LinkService {
	return &linkService{txManager: txManager, links: links, documents: documents, logs: logs}
}

func (s *linkService) CreateLink(ctx context.Context, userID uint, in CreateLinkInput) (models.SharedLink, error) {
	// Ownership and existence are checked together and reported together.
	if _, err := s.documents.GetByIDAndUser(ctx, nil, in.DocumentID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SharedLink{}, newAppError(http.StatusNotFound, msgDocumentNotOwned, nil)
		}
		return models.SharedLink{}, newAppError(http.StatusInternalServerError, "failed to check document", err)
	}

	token, err := utils.GenerateLinkToken()
	if err != nil {
		return models.SharedLink{}, newAppError(http.StatusInternalServerError, "failed to generate token", err)
	}

	link := models.SharedLink{
		DocumentID:    in.DocumentID,
		UserID:        userID,
		Token:         token,
		MaxViews:      in.MaxViews,
		AllowDownload: true,
		IsActive:      true,
	}

	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			return models.SharedLink{}, newAppError(http.StatusInternalServerError, "failed to hash password", err)
		}
		link.PasswordHash = hash
	}

	if in.ExpiresInHours != nil {
		expiresAt := time.Now().Add(time.Duration(*in.ExpiresInHours) * time.Hour)
		link.ExpiresAt = &expiresAt
	}

	if in.AllowDownload != nil {
		link.AllowDownload = *in.AllowDownload
	}

	if err := s.links.Create(ctx, nil, &link); err != nil {
		return models.SharedLink{}, newAppError(http.StatusInternalServerError, "failed to create link", err)
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, userID uint) ([]LinkSummary, error) {
	rows, err := s.links.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list links", err)
	}

	now := time.Now()
	summaries := make([]LinkSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, LinkSummary{
			ID:            row.ID,
			DocumentID:    row.DocumentID,
			Filename:      row.OriginalFilename,
			FileSize:      row.FileSize,
			MimeType:      row.MimeType,
			Token:         row.Token,
			HasPassword:   row.HasPassword(),
			ExpiresAt:     row.ExpiresAt,
			MaxViews:      row.MaxViews,
			ViewCount:     row.ViewCount,
			AllowDownload: row.AllowDownload,
			CreatedAt:     row.CreatedAt,
			LastAccessed:  row.LastAccessed,
			IsExpired:     row.Expired(now),
		})
	}
	return summaries, nil
}

// VerifyAccess evaluates the link's constraints in a fixed order; the first
// failing check wins. It never mutates anything, so it is safe to call
// repeatedly.
func (s *linkService) VerifyAccess(ctx context.Context, token, password string) (VerifyResult, error) {
	link, err := s.links.GetByToken(ctx, nil, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deactivated links are excluded from lookup, same as nonexistent.
			return VerifyResult{Valid: false, Reason: ReasonLinkNotFound}, nil
		}
		return VerifyResult{}, newAppError(http.StatusInternalServerError, "failed to look up link", err)
	}

	if link.Expired(time.Now()) {
		return VerifyResult{Valid: false, Reason: ReasonLinkExpired, Link: &link}, nil
	}

	if link.ViewsExhausted() {
		return VerifyResult{Valid: false, Reason: ReasonMaxViewsReached, Link: &link}, nil
	}

	if link.HasPassword() {
		if password == "" {
			return VerifyResult{Valid: false, Reason: ReasonPasswordRequired, Link: &link}, nil
		}
		if !utils.CheckPassword(link.PasswordHash, password) {
			return VerifyResult{Valid: false, Reason: ReasonInvalidPassword, Link: &link}, nil
		}
	}

	doc, err := s.documents.GetByID(ctx, nil, link.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VerifyResult{Valid: false, Reason: ReasonDocumentNotFound, Link: &link}, nil
		}
		return VerifyResult{}, newAppError(http.StatusInternalServerError, "failed to look up document", err)
	}

	return VerifyResult{Valid: true, Link: &link, Document: &doc}, nil
}

// RecordAccess applies the audit append and the view-count consumption as one
// transaction, so a crash can never leave the counter ahead of the log. The
// consumption itself is a single guarded UPDATE: when two requests race the
// last remaining view, exactly one of them gets it and the loser's log row is
// stamped success=false.
func (s *linkService) RecordAccess(ctx context.Context, in RecordAccessInput) (bool, error) {
	consuming := in.Success &&
		(in.AccessType == models.AccessTypeView || in.AccessType == models.AccessTypeDownload)

	consumed := false
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if consuming {
			ok, err := s.links.ConsumeView(ctx, tx, in.LinkID, time.Now())
			if err != nil {
				return err
			}
			consumed = ok
		}

		entry := models.AccessLog{
			SharedLinkID: in.LinkID,
			IPAddress:    in.IPAddress,
			UserAgent:    in.UserAgent,
			AccessType:   in.AccessType,
			Success:      in.Success && (!consuming || consumed),
		}
		return s.logs.Create(ctx, tx, &entry)
	})
	if err != nil {
		return false, newAppError(http.StatusInternalServerError, "failed to record access", err)
	}
	return consumed, nil
}

func (s *linkService) DeactivateLink(ctx context.Context, linkID, userID uint) (bool, error) {
	rows, err := s.links.Deactivate(ctx, nil, linkID, userID)
	if err != nil {
		return false, newAppError(http.StatusInternalServerError, "failed to deactivate link", err)
	}
	// false means not found or not owned; callers cannot tell which.
	return rows > 0, nil
}

func (s *linkService) AccessLogs(ctx context.Context, linkID, userID uint) ([]models.AccessLog, error) {
	if _, err := s.links.GetByIDAndUser(ctx, nil, linkID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newAppError(http.StatusNotFound, msgLinkNotOwned, nil)
		}
		return nil, newAppError(http.StatusInternalServerError, "failed to check link", err)
	}

	entries, err := s.logs.ListByLink(ctx, nil, linkID, accessLogLimit)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list access logs", err)
	}
	return entries, nil
}

func (s *linkService) Status(ctx context.Context, token string) (LinkStatus, error) {
	link, err := s.links.GetByToken(ctx, nil, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LinkStatus{}, newAppError(http.StatusNotFound, ReasonLinkNotFound, nil)
		}
		return LinkStatus{}, newAppError(http.StatusInternalServerError, "failed to look up link", err)
	}

	return LinkStatus{
		Valid:            !link.Expired(time.Now()) && !link.ViewsExhausted(),
		RequiresPassword: link.HasPassword(),
		ExpiresAt:        link.ExpiresAt,
		ViewCount:        link.ViewCount,
		MaxViews:         link.MaxViews,
		AllowDownload:    link.AllowDownload,
	}, nil
}
