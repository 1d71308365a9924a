package repositories

import (
	"context"
	"time"

	"docshare/models"

	"gorm.io/gorm"
)

// TxManager runs a function inside a single database transaction. The tx
// handle it yields is passed down to repository calls that must share the
// transaction; a nil tx means "use the base connection".
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserRepository interface {
	CountByEmail(ctx context.Context, email string) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	// GetByEmail and GetByID only return active accounts.
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error)
	GetByProvider(ctx context.Context, tx *gorm.DB, provider, providerID string) (models.User, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, userID uint, updates map[string]interface{}) error
}

// DocumentStats is the aggregate row behind the stats summary endpoint.
type DocumentStats struct {
	TotalDocuments int64
	TotalSize      int64
	RecentUploads  int64
}

type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *models.Document) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Document, error)
	// GetByIDAndUser and GetByID exclude soft-deleted rows.
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint) (models.Document, error)
	GetByID(ctx context.Context, tx *gorm.DB, docID uint) (models.Document, error)
	UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint, updates map[string]interface{}) (int64, error)
	// SoftDeleteByIDAndUser flips is_deleted and returns the row as it was, so
	// the caller can attempt physical cleanup afterwards.
	SoftDeleteByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint) (models.Document, bool, error)
	StatsByUser(ctx context.Context, tx *gorm.DB, userID uint, recentSince time.Time) (DocumentStats, error)
}

// LinkWithDocument is the list-view join of a link and its document metadata.
type LinkWithDocument struct {
	models.SharedLink
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `json:"mime_type"`
}

type LinkRepository interface {
	Create(ctx context.Context, tx *gorm.DB, link *models.SharedLink) error
	// GetByToken only returns active links; deactivated tokens look absent.
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (models.SharedLink, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, linkID, userID uint) (models.SharedLink, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]LinkWithDocument, error)
	// Deactivate returns the number of rows affected (0 = not found or not owned).
	Deactivate(ctx context.Context, tx *gorm.DB, linkID, userID uint) (int64, error)
	// ConsumeView performs the atomic guarded increment: the view counter
	// advances only while it is below max_views (or max_views is unset) and
	// the link is still active. Returns whether a view was consumed.
	ConsumeView(ctx context.Context, tx *gorm.DB, linkID uint, now time.Time) (bool, error)
}

type AccessLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.AccessLog) error
	// ListByLink returns up to limit entries, newest first.
	ListByLink(ctx context.Context, tx *gorm.DB, linkID uint, limit int) ([]models.AccessLog, error)
}

// Container bundles the store collaborators handed to services at boot.
type Container struct {
	TxManager  TxManager
	Users      UserRepository
	Documents  DocumentRepository
	Links      LinkRepository
	AccessLogs AccessLogRepository
}

// NewContainer wires gorm-backed repositories around one shared handle.
func NewContainer(db *gorm.DB) *Container {
	return &Container{
		TxManager:  NewTxManager(db),
		Users:      NewUserRepository(db),
		Documents:  NewDocumentRepository(db),
		Links:      NewLinkRepository(db),
		AccessLogs: NewAccessLogRepository(db),
	}
}
