package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
	"gorm.io/gorm"
)

// In-memory repository implementations for service tests. They mirror
// the store semantics the services rely on: per-log monotonic
// timestamps, transactional summary recompute, cursor upserts.

type MockMessageRepository struct {
	mu        sync.Mutex
	messages  map[uint]*models.Message
	summaries map[string]*models.RoomSummary
	groups    map[string]*models.Group // shared with MockGroupRepository for summary writes
	nextID    uint
	clock     time.Time

	failPurge bool
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{
		messages:  make(map[uint]*models.Message),
		summaries: make(map[string]*models.RoomSummary),
		groups:    make(map[string]*models.Group),
		nextID:    1,
		clock:     time.Now().UTC(),
	}
}

func (m *MockMessageRepository) nextTimestamp() time.Time {
	now := time.Now().UTC()
	if !now.After(m.clock) {
		now = m.clock.Add(time.Microsecond)
	}
	m.clock = now
	return now
}

func (m *MockMessageRepository) AppendDirect(message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	message.ID = m.nextID
	m.nextID++
	message.CreatedAt = m.nextTimestamp()
	stored := *message
	m.messages[message.ID] = &stored
	m.recomputeRoomSummaryLocked(message.RoomID)
	return nil
}

func (m *MockMessageRepository) AppendGroup(message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	message.ID = m.nextID
	m.nextID++
	message.CreatedAt = m.nextTimestamp()
	stored := *message
	m.messages[message.ID] = &stored
	m.recomputeGroupSummaryLocked(*message.GroupID)
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok {
		cp := *msg
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) FindByClientID(clientID, senderID string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ClientID == clientID && msg.SenderID == senderID {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) ListRoom(roomID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Message
	for _, msg := range m.messages {
		if msg.RoomID == roomID {
			result = append(result, *msg)
		}
	}
	sortMessages(result)
	return result, nil
}

func (m *MockMessageRepository) ListGroup(groupID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Message
	for _, msg := range m.messages {
		if msg.GroupID != nil && *msg.GroupID == groupID {
			result = append(result, *msg)
		}
	}
	sortMessages(result)
	return result, nil
}

func (m *MockMessageRepository) MarkRoomRead(roomID, fromSenderID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows int64
	for _, msg := range m.messages {
		if msg.RoomID == roomID && msg.SenderID == fromSenderID && !msg.IsRead {
			msg.IsRead = true
			rows++
		}
	}
	return rows, nil
}

func (m *MockMessageRepository) DeleteDirect(roomID string, messageID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || msg.RoomID != roomID {
		return gorm.ErrRecordNotFound
	}
	delete(m.messages, messageID)
	m.recomputeRoomSummaryLocked(roomID)
	return nil
}

func (m *MockMessageRepository) DeleteGroup(groupID string, messageID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || msg.GroupID == nil || *msg.GroupID != groupID {
		return gorm.ErrRecordNotFound
	}
	delete(m.messages, messageID)
	m.recomputeGroupSummaryLocked(groupID)
	return nil
}

func (m *MockMessageRepository) UnreadCountRoom(roomID, fromSenderID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, msg := range m.messages {
		if msg.RoomID == roomID && msg.SenderID == fromSenderID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MockMessageRepository) UnreadCountGroup(groupID, userID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, msg := range m.messages {
		if msg.GroupID != nil && *msg.GroupID == groupID &&
			msg.SenderID != userID && !msg.IsSystem && msg.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *MockMessageRepository) GetRoomSummary(roomID string) (*models.RoomSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if summary, ok := m.summaries[roomID]; ok {
		cp := *summary
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) ListRoomSummaries(userID string) ([]models.RoomSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.RoomSummary
	for roomID, summary := range m.summaries {
		if models.IsParticipant(roomID, userID) {
			result = append(result, *summary)
		}
	}
	return result, nil
}

func (m *MockMessageRepository) PurgeRoom(roomID string) error {
	if m.failPurge {
		return errors.New("backend unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, msg := range m.messages {
		if msg.RoomID == roomID {
			delete(m.messages, id)
		}
	}
	delete(m.summaries, roomID)
	return nil
}

func (m *MockMessageRepository) recomputeRoomSummaryLocked(roomID string) {
	newest := m.newestLocked(func(msg *models.Message) bool { return msg.RoomID == roomID })
	if newest == nil {
		if summary, ok := m.summaries[roomID]; ok {
			summary.LastMessageID = nil
			summary.LastBody = ""
			summary.LastSenderID = ""
			summary.LastMessageAt = nil
		}
		return
	}
	at := newest.CreatedAt
	id := newest.ID
	m.summaries[roomID] = &models.RoomSummary{
		RoomID:        roomID,
		LastMessageID: &id,
		LastBody:      newest.Body,
		LastSenderID:  newest.SenderID,
		LastMessageAt: &at,
	}
}

func (m *MockMessageRepository) recomputeGroupSummaryLocked(groupID string) {
	group, ok := m.groups[groupID]
	if !ok {
		return
	}
	newest := m.newestLocked(func(msg *models.Message) bool {
		return msg.GroupID != nil && *msg.GroupID == groupID
	})
	if newest == nil {
		group.LastMessageID = nil
		group.LastMessage = ""
		group.LastMessageSenderID = ""
		group.LastMessageAt = nil
		return
	}
	at := newest.CreatedAt
	id := newest.ID
	group.LastMessageID = &id
	group.LastMessage = newest.Body
	group.LastMessageSenderID = newest.SenderID
	group.LastMessageAt = &at
}

func (m *MockMessageRepository) newestLocked(match func(*models.Message) bool) *models.Message {
	var newest *models.Message
	for _, msg := range m.messages {
		if !match(msg) {
			continue
		}
		if newest == nil || msg.CreatedAt.After(newest.CreatedAt) {
			newest = msg
		}
	}
	return newest
}

func sortMessages(messages []models.Message) {
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

type MockGroupRepository struct {
	mu      sync.Mutex
	groups  map[string]*models.Group
	msgs    *MockMessageRepository
	cursors *MockCursorRepository
}

func NewMockGroupRepository(msgs *MockMessageRepository, cursors *MockCursorRepository) *MockGroupRepository {
	return &MockGroupRepository{
		groups:  msgs.groups,
		msgs:    msgs,
		cursors: cursors,
	}
}

func (m *MockGroupRepository) Create(group *models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *group
	m.groups[group.ID] = &cp
	return nil
}

func (m *MockGroupRepository) FindByID(id string) (*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[id]
	if !ok || !group.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *group
	cp.Members = append([]models.GroupMember(nil), group.Members...)
	return &cp, nil
}

func (m *MockGroupRepository) AddMember(groupID, userID string, role models.GroupRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	group.Members = append(group.Members, models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *MockGroupRepository) RemoveMember(groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := group.Members[:0]
	for _, member := range group.Members {
		if member.UserID != userID {
			kept = append(kept, member)
		}
	}
	group.Members = kept
	return nil
}

func (m *MockGroupRepository) GetMembers(groupID string) ([]models.GroupMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[groupID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return append([]models.GroupMember(nil), group.Members...), nil
}

func (m *MockGroupRepository) IsMember(groupID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[groupID]
	if !ok {
		return false, nil
	}
	return group.HasMember(userID), nil
}

func (m *MockGroupRepository) GetMemberRole(groupID, userID string) (models.GroupRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[groupID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	for _, member := range group.Members {
		if member.UserID == userID {
			return member.Role, nil
		}
	}
	return "", gorm.ErrRecordNotFound
}

func (m *MockGroupRepository) GetUserGroups(userID string) ([]models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Group
	for _, group := range m.groups {
		if group.IsActive && group.HasMember(userID) {
			result = append(result, *group)
		}
	}
	return result, nil
}

func (m *MockGroupRepository) DeleteCascade(groupID string) error {
	m.mu.Lock()
	group, ok := m.groups[groupID]
	if !ok {
		m.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	members := group.MemberIDs()
	delete(m.groups, groupID)
	m.mu.Unlock()

	for _, userID := range members {
		_ = m.cursors.DeleteForMember(groupID, userID)
	}
	m.msgs.mu.Lock()
	for id, msg := range m.msgs.messages {
		if msg.GroupID != nil && *msg.GroupID == groupID {
			delete(m.msgs.messages, id)
		}
	}
	m.msgs.mu.Unlock()
	return nil
}

type MockCursorRepository struct {
	mu      sync.Mutex
	cursors map[string]*models.GroupCursor
	clock   func() time.Time
}

func NewMockCursorRepository() *MockCursorRepository {
	return &MockCursorRepository{
		cursors: make(map[string]*models.GroupCursor),
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

func cursorKey(groupID, userID string) string {
	return groupID + "/" + userID
}

func (m *MockCursorRepository) EnsureForMember(groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cursorKey(groupID, userID)
	if _, ok := m.cursors[key]; ok {
		return nil
	}
	m.cursors[key] = &models.GroupCursor{
		GroupID:    groupID,
		UserID:     userID,
		LastReadAt: m.clock(),
	}
	return nil
}

func (m *MockCursorRepository) DeleteForMember(groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cursors, cursorKey(groupID, userID))
	return nil
}

func (m *MockCursorRepository) UpsertMonotonic(groupID, userID string, lastReadAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cursorKey(groupID, userID)
	cursor, ok := m.cursors[key]
	if !ok {
		m.cursors[key] = &models.GroupCursor{GroupID: groupID, UserID: userID, LastReadAt: lastReadAt}
		return nil
	}
	if lastReadAt.After(cursor.LastReadAt) {
		cursor.LastReadAt = lastReadAt
	}
	return nil
}

func (m *MockCursorRepository) Get(groupID, userID string) (*models.GroupCursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cursor, ok := m.cursors[cursorKey(groupID, userID)]; ok {
		cp := *cursor
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockCursorRepository) ListByGroup(groupID string) ([]models.GroupCursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.GroupCursor
	for _, cursor := range m.cursors {
		if cursor.GroupID == groupID {
			result = append(result, *cursor)
		}
	}
	return result, nil
}

type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMockUserRepository(users ...*models.User) *MockUserRepository {
	repo := &MockUserRepository{users: make(map[string]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (m *MockUserRepository) Upsert(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) FindByID(id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) UpdateOnlineStatus(userID string, isOnline bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[userID]; ok {
		user.IsOnline = isOnline
	}
	return nil
}

// allowAll permits every conversation; denyAll rejects them all.
type allowAll struct{}

func (allowAll) MayConverse(ctx context.Context, a, b string) (bool, error) { return true, nil }

type denyAll struct{}

func (denyAll) MayConverse(ctx context.Context, a, b string) (bool, error) { return false, nil }

// mockResolver resolves only the users it was seeded with.
type mockResolver struct {
	users map[string]*models.User
}

func newMockResolver(users ...*models.User) *mockResolver {
	r := &mockResolver{users: make(map[string]*models.User)}
	for _, user := range users {
		r.users[user.ID] = user
	}
	return r
}

func (r *mockResolver) Resolve(ctx context.Context, id string) (*models.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// recordingReporter captures best-effort cleanup failures.
type recordingReporter struct {
	mu     sync.Mutex
	errors []error
}

func (r *recordingReporter) Report(ctx context.Context, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}
