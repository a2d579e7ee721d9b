package repository

import (
	"strings"
	"time"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// AppendDirect persists a direct-room message and refreshes the room
// summary in the same transaction. The stored CreatedAt is server time,
// bumped past the newest existing message so the per-room order stays
// strictly increasing even under clock ties.
func (r *MessageRepository) AppendDirect(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		message.CreatedAt = nextTimestamp(tx, "room_id = ?", message.RoomID)
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return writeRoomSummary(tx, message.RoomID, message)
	})
}

// AppendGroup persists a group message and refreshes the group's
// denormalized summary in the same transaction.
func (r *MessageRepository) AppendGroup(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		message.CreatedAt = nextTimestamp(tx, "group_id = ?", *message.GroupID)
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return writeGroupSummary(tx, *message.GroupID, message)
	})
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindByClientID(clientID, senderID string) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("client_id = ? AND sender_id = ?", clientID, senderID).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) ListRoom(roomID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) ListGroup(groupID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRoomRead flips every unread message from fromSenderID in the room
// to read. Returns the number of rows updated; zero rows is a valid
// no-op, which makes the call idempotent.
func (r *MessageRepository) MarkRoomRead(roomID, fromSenderID string) (int64, error) {
	res := r.db.Model(&models.Message{}).
		Where("room_id = ? AND sender_id = ? AND is_read = false", roomID, fromSenderID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteDirect removes one message and recomputes the room summary from
// the newest remaining message inside the same transaction. The summary
// is re-queried, never patched from local bookkeeping, so a delete
// racing an append can neither point at a gone message nor skip a newer
// one.
func (r *MessageRepository) DeleteDirect(roomID string, messageID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("room_id = ? AND id = ?", roomID, messageID).Delete(&models.Message{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var newest models.Message
		err := tx.Where("room_id = ?", roomID).
			Order("created_at DESC, id DESC").
			First(&newest).Error
		switch {
		case err == nil:
			return writeRoomSummary(tx, roomID, &newest)
		case err == gorm.ErrRecordNotFound:
			return clearRoomSummary(tx, roomID)
		default:
			return err
		}
	})
}

// DeleteGroup mirrors DeleteDirect for group logs and the group-row
// summary fields.
func (r *MessageRepository) DeleteGroup(groupID string, messageID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("group_id = ? AND id = ?", groupID, messageID).Delete(&models.Message{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var newest models.Message
		err := tx.Where("group_id = ?", groupID).
			Order("created_at DESC, id DESC").
			First(&newest).Error
		switch {
		case err == nil:
			return writeGroupSummary(tx, groupID, &newest)
		case err == gorm.ErrRecordNotFound:
			return writeGroupSummary(tx, groupID, nil)
		default:
			return err
		}
	})
}

func (r *MessageRepository) UnreadCountRoom(roomID, fromSenderID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("room_id = ? AND sender_id = ? AND is_read = false", roomID, fromSenderID).
		Count(&count).Error
	return count, err
}

// UnreadCountGroup counts messages authored by someone other than
// userID, newer than the member's watermark. System messages never
// count.
func (r *MessageRepository) UnreadCountGroup(groupID, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("group_id = ? AND sender_id <> ? AND is_system = false AND created_at > ?",
			groupID, userID, since).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) GetRoomSummary(roomID string) (*models.RoomSummary, error) {
	var summary models.RoomSummary
	if err := r.db.First(&summary, "room_id = ?", roomID).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListRoomSummaries returns the direct-room summaries the user
// participates in, most recent first. Room ids embed both participant
// ids, so matching on either side of the separator finds them all. The
// separator and the user id are LIKE-escaped: a bare `_` is the SQL
// single-character wildcard and would match other users' rooms (e.g.
// "alice" against "bob_malice").
func (r *MessageRepository) ListRoomSummaries(userID string) ([]models.RoomSummary, error) {
	esc := escapeLike(userID)
	sep := `\` + models.RoomSeparator
	var summaries []models.RoomSummary
	err := r.db.
		Where("room_id LIKE ? ESCAPE '\\' OR room_id LIKE ? ESCAPE '\\'",
			esc+sep+"%", "%"+sep+esc).
		Order("last_message_at DESC NULLS LAST").
		Find(&summaries).Error
	return summaries, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PurgeRoom drops a room's whole log and summary. Used by best-effort
// cleanup after a relationship ends; callers treat failures as
// observability events only.
func (r *MessageRepository) PurgeRoom(roomID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("room_id = ?", roomID).Delete(&models.RoomSummary{}).Error
	})
}

// nextTimestamp returns server now, pushed just past the newest message
// matching scope so timestamps stay strictly increasing per log.
func nextTimestamp(tx *gorm.DB, query string, arg interface{}) time.Time {
	now := time.Now().UTC()
	var newest models.Message
	if err := tx.Where(query, arg).
		Order("created_at DESC, id DESC").
		First(&newest).Error; err != nil {
		return now
	}
	if !now.After(newest.CreatedAt) {
		return newest.CreatedAt.Add(time.Microsecond)
	}
	return now
}

func writeRoomSummary(tx *gorm.DB, roomID string, m *models.Message) error {
	at := m.CreatedAt
	summary := models.RoomSummary{
		RoomID:        roomID,
		LastMessageID: &m.ID,
		LastBody:      m.Body,
		LastSenderID:  m.SenderID,
		LastMessageAt: &at,
	}
	return tx.Save(&summary).Error
}

func clearRoomSummary(tx *gorm.DB, roomID string) error {
	return tx.Model(&models.RoomSummary{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message_id": nil,
			"last_body":       "",
			"last_sender_id":  "",
			"last_message_at": nil,
		}).Error
}

func writeGroupSummary(tx *gorm.DB, groupID string, m *models.Message) error {
	fields := map[string]interface{}{
		"last_message_id":        nil,
		"last_message":           "",
		"last_message_sender_id": "",
		"last_message_at":        nil,
	}
	if m != nil {
		at := m.CreatedAt
		fields["last_message_id"] = m.ID
		fields["last_message"] = m.Body
		fields["last_message_sender_id"] = m.SenderID
		fields["last_message_at"] = at
	}
	return tx.Model(&models.Group{}).Where("id = ?", groupID).Updates(fields).Error
}
