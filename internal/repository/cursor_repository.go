package repository

import (
	"time"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
	"gorm.io/gorm"
)

type CursorRepository struct {
	db *gorm.DB
}

func NewCursorRepository(db *gorm.DB) *CursorRepository {
	return &CursorRepository{db: db}
}

// EnsureForMember creates the member's watermark at join time, set to
// now so prior history never counts as unread. Re-running is a no-op.
func (r *CursorRepository) EnsureForMember(groupID, userID string) error {
	return r.db.Exec(`
		INSERT INTO group_cursors (group_id, user_id, last_read_at, created_at, updated_at)
		VALUES (?, ?, NOW(), NOW(), NOW())
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, groupID, userID).Error
}

func (r *CursorRepository) DeleteForMember(groupID, userID string) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupCursor{}).Error
}

// UpsertMonotonic moves the watermark forward only; a stale writer can
// never rewind another device's progress.
func (r *CursorRepository) UpsertMonotonic(groupID, userID string, lastReadAt time.Time) error {
	return r.db.Exec(`
		INSERT INTO group_cursors (group_id, user_id, last_read_at, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())
		ON CONFLICT (group_id, user_id) DO UPDATE
		SET last_read_at = GREATEST(group_cursors.last_read_at, EXCLUDED.last_read_at),
			updated_at = NOW()
	`, groupID, userID, lastReadAt).Error
}

func (r *CursorRepository) Get(groupID, userID string) (*models.GroupCursor, error) {
	var cursor models.GroupCursor
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&cursor).Error
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (r *CursorRepository) ListByGroup(groupID string) ([]models.GroupCursor, error) {
	var cursors []models.GroupCursor
	err := r.db.Where("group_id = ?", groupID).Find(&cursors).Error
	return cursors, err
}
