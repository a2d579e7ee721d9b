package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/apperrors"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/cache"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/identity"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/repository"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/stream"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupService owns group lifecycle, the membership roster with its two
// role tiers, per-member read cursors, and the group message log.
// Authorization is enforced here: admins edit the roster, only the
// creator deletes, and any member may always remove themselves.
type GroupService struct {
	groupRepo    repository.GroupRepositoryInterface
	cursorRepo   repository.CursorRepositoryInterface
	messageRepo  repository.MessageRepositoryInterface
	resolver     identity.Resolver
	messageCache *cache.MessageCache
	log          *slog.Logger

	groupLocks *keyedMutex
	snapshots  *stream.Broker[[]models.MessageResponse]
	unread     *stream.Broker[int64]
}

func NewGroupService(
	groupRepo repository.GroupRepositoryInterface,
	cursorRepo repository.CursorRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	resolver identity.Resolver,
	messageCache *cache.MessageCache,
	log *slog.Logger,
) *GroupService {
	return &GroupService{
		groupRepo:    groupRepo,
		cursorRepo:   cursorRepo,
		messageRepo:  messageRepo,
		resolver:     resolver,
		messageCache: messageCache,
		log:          log,
		groupLocks:   newKeyedMutex(),
		snapshots:    stream.NewBroker[[]models.MessageResponse](),
		unread:       stream.NewBroker[int64](),
	}
}

func groupTopic(groupID string) string {
	return "group:" + groupID
}

func groupUnreadTopic(groupID, userID string) string {
	return "group-unread:" + groupID + ":" + userID
}

// Create builds a new active group. The creator is always a member and
// is seeded as the first admin; duplicate member ids collapse. Every
// member gets a read cursor, and a synthetic system message marks the
// creation without ever counting as unread.
func (s *GroupService) Create(ctx context.Context, creatorID, name, description string, memberIDs []string) (*models.Group, error) {
	if !validation.ValidateUserID(creatorID) {
		return nil, apperrors.E(apperrors.KindInvalidArgument, "invalid creator id")
	}
	if !validation.ValidateGroupName(name) {
		return nil, apperrors.E(apperrors.KindInvalidArgument, "group name is empty or too long")
	}

	group := &models.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
		IsActive:    true,
	}
	if err := s.groupRepo.Create(group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	if err := s.groupRepo.AddMember(group.ID, creatorID, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("seed creator membership: %w", err)
	}
	if err := s.cursorRepo.EnsureForMember(group.ID, creatorID); err != nil {
		return nil, fmt.Errorf("seed creator cursor: %w", err)
	}

	seen := map[string]struct{}{creatorID: {}}
	for _, memberID := range memberIDs {
		if !validation.ValidateUserID(memberID) {
			continue
		}
		if _, dup := seen[memberID]; dup {
			continue
		}
		seen[memberID] = struct{}{}
		if err := s.groupRepo.AddMember(group.ID, memberID, models.RoleMember); err != nil {
			return nil, fmt.Errorf("add member %s: %w", memberID, err)
		}
		if err := s.cursorRepo.EnsureForMember(group.ID, memberID); err != nil {
			return nil, fmt.Errorf("seed cursor for %s: %w", memberID, err)
		}
	}

	system := &models.Message{
		GroupID:    &group.ID,
		SenderID:   models.SystemSenderID,
		ReceiverID: group.ID,
		Body:       fmt.Sprintf("Group %q created", name),
		IsSystem:   true,
	}
	if err := s.messageRepo.AppendGroup(system); err != nil {
		return nil, fmt.Errorf("seed system message: %w", err)
	}

	return s.findGroup(group.ID)
}

// AddMember adds userID to the roster. Admin-only; adding an existing
// member succeeds without effect.
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, userID string) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return apperrors.E(apperrors.KindPermissionDenied, "only admins may add members")
	}
	if !validation.ValidateUserID(userID) {
		return apperrors.E(apperrors.KindInvalidArgument, "invalid user id")
	}
	if group.HasMember(userID) {
		return nil
	}

	if err := s.groupRepo.AddMember(groupID, userID, models.RoleMember); err != nil {
		return fmt.Errorf("add member %s: %w", userID, err)
	}
	if err := s.cursorRepo.EnsureForMember(groupID, userID); err != nil {
		return fmt.Errorf("init cursor for %s: %w", userID, err)
	}
	return nil
}

// RemoveMember removes userID from the roster along with any admin role
// and their cursor. Admin-only; the creator can never be removed.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, userID string) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) && actorID != userID {
		return apperrors.E(apperrors.KindPermissionDenied, "only admins may remove members")
	}
	return s.removeMember(group, userID)
}

// Leave is self-removal: it bypasses the admin check that governs
// removing others. The creator cannot leave their own group; they must
// delete it.
func (s *GroupService) Leave(ctx context.Context, callerID, groupID string) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}
	return s.removeMember(group, callerID)
}

func (s *GroupService) removeMember(group *models.Group, userID string) error {
	if userID == group.CreatedBy {
		return apperrors.E(apperrors.KindPermissionDenied, "the creator cannot be removed; delete the group instead")
	}
	if !group.HasMember(userID) {
		return apperrors.E(apperrors.KindNotFound, "user %s is not a member", userID)
	}

	if err := s.groupRepo.RemoveMember(group.ID, userID); err != nil {
		return fmt.Errorf("remove member %s: %w", userID, err)
	}
	if err := s.cursorRepo.DeleteForMember(group.ID, userID); err != nil {
		return fmt.Errorf("drop cursor for %s: %w", userID, err)
	}
	s.messageCache.InvalidateGroupUnread(group.ID, userID)
	return nil
}

// Delete destroys the group, its roster, all cursors and the whole
// message log. Creator-only; this is the single hard delete in the
// system. Live subscribers are failed once and closed.
func (s *GroupService) Delete(ctx context.Context, callerID, groupID string) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}
	if callerID != group.CreatedBy {
		return apperrors.E(apperrors.KindPermissionDenied, "only the creator may delete the group")
	}

	members := group.MemberIDs()

	unlock := s.groupLocks.Lock(groupID)
	err = s.groupRepo.DeleteCascade(groupID)
	unlock()
	if err != nil {
		return fmt.Errorf("delete group %s: %w", groupID, err)
	}

	for _, memberID := range members {
		s.messageCache.InvalidateGroupUnread(groupID, memberID)
		s.unread.Fail(groupUnreadTopic(groupID, memberID), apperrors.E(apperrors.KindNotFound, "group %s deleted", groupID))
	}
	s.snapshots.Fail(groupTopic(groupID), apperrors.E(apperrors.KindNotFound, "group %s deleted", groupID))
	return nil
}

// MembersDetail resolves the roster through the identity collaborator.
// Ids that no longer resolve are skipped; membership lists and the
// identity store are allowed to drift.
func (s *GroupService) MembersDetail(ctx context.Context, groupID string) ([]models.UserResponse, error) {
	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}

	users := make([]models.UserResponse, 0, len(group.Members))
	for _, member := range group.Members {
		user, err := s.resolver.Resolve(ctx, member.UserID)
		if err != nil {
			s.log.WarnContext(ctx, "member did not resolve, skipping", "group", groupID, "user", member.UserID)
			continue
		}
		users = append(users, user.ToResponse())
	}
	return users, nil
}

// MarkRead moves the actor's watermark to server now. Last writer wins
// but never backwards.
func (s *GroupService) MarkRead(ctx context.Context, actorID, groupID string) error {
	if err := s.requireMember(groupID, actorID); err != nil {
		return err
	}
	if err := s.cursorRepo.UpsertMonotonic(groupID, actorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	s.messageCache.InvalidateGroupUnread(groupID, actorID)
	s.publishGroupUnread(ctx, groupID, actorID)
	return nil
}

// UnreadCount reports messages from others newer than the actor's
// watermark. System messages are excluded.
func (s *GroupService) UnreadCount(ctx context.Context, actorID, groupID string) (int64, error) {
	if err := s.requireMember(groupID, actorID); err != nil {
		return 0, err
	}
	if count, ok := s.messageCache.GetGroupUnread(groupID, actorID); ok {
		return count, nil
	}
	count, err := s.unreadCount(groupID, actorID)
	if err != nil {
		return 0, err
	}
	s.messageCache.SetGroupUnread(groupID, actorID, count)
	return count, nil
}

// StreamUnread subscribes a member to their live unread counter.
func (s *GroupService) StreamUnread(ctx context.Context, actorID, groupID string) (*stream.Subscription[int64], error) {
	if err := s.requireMember(groupID, actorID); err != nil {
		return nil, err
	}
	count, err := s.unreadCount(groupID, actorID)
	if err != nil {
		return nil, err
	}
	return s.unread.Subscribe(groupUnreadTopic(groupID, actorID), count), nil
}

// AppendMessage writes one message to the group log. Members only; the
// group summary is refreshed transactionally and every member's unread
// feed re-published.
func (s *GroupService) AppendMessage(ctx context.Context, groupID, senderID string, input AppendInput) (*models.Message, error) {
	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(senderID) {
		return nil, apperrors.E(apperrors.KindPermissionDenied, "not a member of group %s", groupID)
	}
	if !validation.ValidateMessageBody(input.Body) {
		return nil, apperrors.E(apperrors.KindInvalidArgument, "message body is empty or too long")
	}

	if input.ClientID != "" {
		if existing, err := s.messageRepo.FindByClientID(input.ClientID, senderID); err == nil {
			return existing, nil
		}
	}

	message := &models.Message{
		ClientID:   input.ClientID,
		GroupID:    &group.ID,
		SenderID:   senderID,
		ReceiverID: groupID,
		Body:       input.Body,
	}

	unlock := s.groupLocks.Lock(groupID)
	err = s.messageRepo.AppendGroup(message)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("append to group %s: %w", groupID, err)
	}

	s.publishGroup(ctx, groupID)
	for _, memberID := range group.MemberIDs() {
		if memberID == senderID {
			continue
		}
		s.messageCache.InvalidateGroupUnread(groupID, memberID)
		s.publishGroupUnread(ctx, groupID, memberID)
	}
	return message, nil
}

// StreamMessages subscribes a member to the group's live snapshot feed.
func (s *GroupService) StreamMessages(ctx context.Context, groupID, principal string) (*stream.Subscription[[]models.MessageResponse], error) {
	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(principal) {
		return nil, apperrors.E(apperrors.KindPermissionDenied, "not a member of group %s", groupID)
	}
	messages, err := s.messageRepo.ListGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("list group %s: %w", groupID, err)
	}
	return s.snapshots.Subscribe(groupTopic(groupID), models.ToResponses(messages)), nil
}

// DeleteMessage removes one group message; only its sender may do so.
func (s *GroupService) DeleteMessage(ctx context.Context, groupID string, messageID uint, actorID string) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(actorID) {
		return apperrors.E(apperrors.KindPermissionDenied, "not a member of group %s", groupID)
	}

	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.E(apperrors.KindNotFound, "message %d", messageID)
		}
		return err
	}
	if message.GroupID == nil || *message.GroupID != groupID {
		return apperrors.E(apperrors.KindNotFound, "message %d not in group %s", messageID, groupID)
	}
	if message.SenderID != actorID {
		return apperrors.E(apperrors.KindPermissionDenied, "only the sender may delete a message")
	}

	unlock := s.groupLocks.Lock(groupID)
	err = s.messageRepo.DeleteGroup(groupID, messageID)
	unlock()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.E(apperrors.KindNotFound, "message %d", messageID)
		}
		return fmt.Errorf("delete from group %s: %w", groupID, err)
	}

	s.publishGroup(ctx, groupID)
	return nil
}

// ListGroups returns the active groups the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.groupRepo.GetUserGroups(userID)
	if err != nil {
		return nil, fmt.Errorf("list groups for %s: %w", userID, err)
	}
	return groups, nil
}

func (s *GroupService) findGroup(groupID string) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "group %s", groupID)
		}
		return nil, fmt.Errorf("find group %s: %w", groupID, err)
	}
	return group, nil
}

func (s *GroupService) requireMember(groupID, userID string) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return apperrors.E(apperrors.KindPermissionDenied, "not a member of group %s", groupID)
	}
	return nil
}

func (s *GroupService) unreadCount(groupID, userID string) (int64, error) {
	since := time.Time{}
	if cursor, err := s.cursorRepo.Get(groupID, userID); err == nil {
		since = cursor.LastReadAt
	}
	count, err := s.messageRepo.UnreadCountGroup(groupID, userID, since)
	if err != nil {
		return 0, fmt.Errorf("unread count for group %s: %w", groupID, err)
	}
	return count, nil
}

func (s *GroupService) publishGroup(ctx context.Context, groupID string) {
	messages, err := s.messageRepo.ListGroup(groupID)
	if err != nil {
		s.log.ErrorContext(ctx, "group snapshot failed, closing stream", "group", groupID, "error", err)
		s.snapshots.Fail(groupTopic(groupID), fmt.Errorf("group snapshot unavailable"))
		return
	}
	s.snapshots.Publish(groupTopic(groupID), models.ToResponses(messages))
}

func (s *GroupService) publishGroupUnread(ctx context.Context, groupID, userID string) {
	count, err := s.unreadCount(groupID, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "group unread recount failed", "group", groupID, "user", userID, "error", err)
		return
	}
	s.messageCache.SetGroupUnread(groupID, userID, count)
	s.unread.Publish(groupUnreadTopic(groupID, userID), count)
}
