package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"docshare/models"
	"docshare/repositories"

	"gorm.io/gorm"
)

// In-memory fakes standing in for the gorm repositories. They hold the same
// contracts the real implementations do, including the atomicity of
// ConsumeView, so the service tests exercise real race behavior.

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[uint]models.User{}}
}

func (f *fakeUserRepo) CountByEmail(ctx context.Context, email string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.Email == email {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || !u.IsActive {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByProvider(ctx context.Context, tx *gorm.DB, provider, providerID string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateByID(ctx context.Context, tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "last_login":
			t := v.(time.Time)
			u.LastLogin = &t
		case "provider":
			u.Provider = v.(string)
		case "provider_id":
			u.ProviderID = v.(string)
		}
	}
	f.users[userID] = u
	return nil
}

type fakeDocumentRepo struct {
	mu     sync.Mutex
	nextID uint
	docs   map[uint]models.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{nextID: 1, docs: map[uint]models.Document{}}
}

func (f *fakeDocumentRepo) Create(ctx context.Context, tx *gorm.DB, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc.ID = f.nextID
	f.nextID++
	doc.CreatedAt = time.Now()
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocumentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, d := range f.docs {
		if d.UserID == userID && !d.IsDeleted {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDocumentRepo) GetByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint) (models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docID]
	if !ok || d.UserID != userID || d.IsDeleted {
		return models.Document{}, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, tx *gorm.DB, docID uint) (models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docID]
	if !ok || d.IsDeleted {
		return models.Document{}, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (f *fakeDocumentRepo) UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint, updates map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docID]
	if !ok || d.UserID != userID || d.IsDeleted {
		return 0, nil
	}
	if v, ok := updates["description"]; ok {
		d.Description = v.(string)
	}
	f.docs[docID] = d
	return 1, nil
}

func (f *fakeDocumentRepo) SoftDeleteByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint) (models.Document, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docID]
	if !ok || d.UserID != userID || d.IsDeleted {
		return models.Document{}, false, nil
	}
	snapshot := d
	d.IsDeleted = true
	f.docs[docID] = d
	return snapshot, true, nil
}

func (f *fakeDocumentRepo) StatsByUser(ctx context.Context, tx *gorm.DB, userID uint, recentSince time.Time) (repositories.DocumentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats repositories.DocumentStats
	for _, d := range f.docs {
		if d.UserID != userID || d.IsDeleted {
			continue
		}
		stats.TotalDocuments++
		stats.TotalSize += d.FileSize
		if d.CreatedAt.After(recentSince) {
			stats.RecentUploads++
		}
	}
	return stats, nil
}

type fakeLinkRepo struct {
	mu     sync.Mutex
	nextID uint
	links  map[uint]models.SharedLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{nextID: 1, links: map[uint]models.SharedLink{}}
}

func (f *fakeLinkRepo) Create(ctx context.Context, tx *gorm.DB, link *models.SharedLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	link.ID = f.nextID
	f.nextID++
	link.CreatedAt = time.Now()
	f.links[link.ID] = *link
	return nil
}

func (f *fakeLinkRepo) GetByToken(ctx context.Context, tx *gorm.DB, token string) (models.SharedLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.Token == token && l.IsActive {
			return l, nil
		}
	}
	return models.SharedLink{}, gorm.ErrRecordNotFound
}

func (f *fakeLinkRepo) GetByIDAndUser(ctx context.Context, tx *gorm.DB, linkID, userID uint) (models.SharedLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[linkID]
	if !ok || l.UserID != userID {
		return models.SharedLink{}, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (f *fakeLinkRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]repositories.LinkWithDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repositories.LinkWithDocument
	for _, l := range f.links {
		if l.UserID == userID && l.IsActive {
			out = append(out, repositories.LinkWithDocument{SharedLink: l})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeLinkRepo) Deactivate(ctx context.Context, tx *gorm.DB, linkID, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[linkID]
	if !ok || l.UserID != userID || !l.IsActive {
		return 0, nil
	}
	l.IsActive = false
	f.links[linkID] = l
	return 1, nil
}

// ConsumeView mirrors the conditional UPDATE of the real repository: the
// check and the increment happen under one lock, so concurrent callers
// racing the last view see exactly one winner.
func (f *fakeLinkRepo) ConsumeView(ctx context.Context, tx *gorm.DB, linkID uint, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[linkID]
	if !ok || !l.IsActive {
		return false, nil
	}
	if l.MaxViews != nil && l.ViewCount >= *l.MaxViews {
		return false, nil
	}
	l.ViewCount++
	l.LastAccessed = &now
	f.links[linkID] = l
	return true, nil
}

// get returns the current stored state of a link for assertions.
func (f *fakeLinkRepo) get(linkID uint) models.SharedLink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links[linkID]
}

type fakeAccessLogRepo struct {
	mu      sync.Mutex
	nextID  uint
	entries []models.AccessLog
}

func newFakeAccessLogRepo() *fakeAccessLogRepo {
	return &fakeAccessLogRepo{nextID: 1}
}

func (f *fakeAccessLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *models.AccessLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = f.nextID
	f.nextID++
	if entry.AccessedAt.IsZero() {
		entry.AccessedAt = time.Now()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAccessLogRepo) ListByLink(ctx context.Context, tx *gorm.DB, linkID uint, limit int) ([]models.AccessLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AccessLog
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].SharedLinkID == linkID {
			out = append(out, f.entries[i])
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// forLink returns all stored entries for a link, oldest first.
func (f *fakeAccessLogRepo) forLink(linkID uint) []models.AccessLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AccessLog
	for _, e := range f.entries {
		if e.SharedLinkID == linkID {
			out = append(out, e)
		}
	}
	return out
}
