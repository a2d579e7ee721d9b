package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/apperrors"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/cache"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/identity"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/repository"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/stream"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/validation"
	"gorm.io/gorm"
)

// MessageService owns the append-only logs of direct (1:1) rooms: writes,
// read-state, deletes with summary recompute, and the live snapshot and
// unread-count feeds derived from them. Rooms are addressed purely by
// their derived id; nothing is created up front.
type MessageService struct {
	messageRepo  repository.MessageRepositoryInterface
	messageCache *cache.MessageCache
	relationship identity.RelationshipChecker
	reporter     Reporter
	log          *slog.Logger

	roomLocks *keyedMutex
	snapshots *stream.Broker[[]models.MessageResponse]
	unread    *stream.Broker[int64]
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	messageCache *cache.MessageCache,
	relationship identity.RelationshipChecker,
	reporter Reporter,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:  messageRepo,
		messageCache: messageCache,
		relationship: relationship,
		reporter:     reporter,
		log:          log,
		roomLocks:    newKeyedMutex(),
		snapshots:    stream.NewBroker[[]models.MessageResponse](),
		unread:       stream.NewBroker[int64](),
	}
}

func roomTopic(roomID string) string {
	return "room:" + roomID
}

func roomUnreadTopic(roomID, fromSenderID string) string {
	return "room-unread:" + roomID + ":" + fromSenderID
}

// OpenDirectRoom derives the canonical room id for the principal and a
// counterpart, after rejecting self-conversations and pairs the
// relationship collaborator does not allow.
func (s *MessageService) OpenDirectRoom(ctx context.Context, principal, counterpart string) (string, error) {
	if !validation.ValidateUserID(principal) || !validation.ValidateUserID(counterpart) {
		return "", apperrors.E(apperrors.KindInvalidArgument, "invalid user id")
	}
	if principal == counterpart {
		return "", apperrors.E(apperrors.KindInvalidArgument, "cannot open a conversation with yourself")
	}
	if err := s.checkConverse(ctx, principal, counterpart); err != nil {
		return "", err
	}
	return models.DirectRoomID(principal, counterpart), nil
}

type AppendInput struct {
	ClientID string `json:"client_id"`
	Body     string `json:"body"`
}

// Append writes one message to a direct room. The store assigns the id
// and a per-room strictly increasing server timestamp; the new message
// starts unread and becomes the room's last-message summary. All live
// feeds of the room are re-published after commit.
func (s *MessageService) Append(ctx context.Context, roomID, senderID string, input AppendInput) (*models.Message, error) {
	userA, userB, err := s.authorizeRoom(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if !validation.ValidateMessageBody(input.Body) {
		return nil, apperrors.E(apperrors.KindInvalidArgument, "message body is empty or too long")
	}

	if input.ClientID != "" {
		if existing, err := s.messageRepo.FindByClientID(input.ClientID, senderID); err == nil {
			return existing, nil
		}
	}

	receiverID := userA
	if senderID == userA {
		receiverID = userB
	}

	message := &models.Message{
		ClientID:   input.ClientID,
		RoomID:     roomID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       input.Body,
		IsRead:     false,
	}

	unlock := s.roomLocks.Lock(roomID)
	err = s.messageRepo.AppendDirect(message)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("append to room %s: %w", roomID, err)
	}

	s.messageCache.InvalidateRoomUnread(roomID, senderID)
	s.messageCache.InvalidateSummaryList(userA)
	s.messageCache.InvalidateSummaryList(userB)

	s.publishRoom(ctx, roomID)
	s.publishRoomUnread(ctx, roomID, senderID)
	return message, nil
}

// Stream subscribes the principal to the room's live snapshot feed. The
// first event carries the current fully ordered log; every later
// mutation re-emits a fresh one. Cancelling is side-effect free.
func (s *MessageService) Stream(ctx context.Context, roomID, principal string) (*stream.Subscription[[]models.MessageResponse], error) {
	if _, _, err := s.authorizeRoom(ctx, roomID, principal); err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListRoom(roomID)
	if err != nil {
		return nil, fmt.Errorf("list room %s: %w", roomID, err)
	}
	return s.snapshots.Subscribe(roomTopic(roomID), models.ToResponses(messages)), nil
}

// MarkRead flips every unread message from fromSenderID to read. The
// actor must be the other participant. Re-invoking with nothing unread
// is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, roomID, actorID, fromSenderID string) error {
	if _, _, err := s.authorizeRoom(ctx, roomID, actorID); err != nil {
		return err
	}
	if actorID == fromSenderID {
		return apperrors.E(apperrors.KindInvalidArgument, "cannot mark own messages as read")
	}

	rows, err := s.messageRepo.MarkRoomRead(roomID, fromSenderID)
	if err != nil {
		return fmt.Errorf("mark read in room %s: %w", roomID, err)
	}
	if rows == 0 {
		return nil
	}

	s.messageCache.InvalidateRoomUnread(roomID, fromSenderID)
	s.publishRoom(ctx, roomID)
	s.publishRoomUnread(ctx, roomID, fromSenderID)
	return nil
}

// Delete removes one message; only its sender may do so. The room
// summary is recomputed transactionally from the newest remaining
// message, or cleared when the log is empty.
func (s *MessageService) Delete(ctx context.Context, roomID string, messageID uint, actorID string) error {
	userA, userB, err := s.authorizeRoom(ctx, roomID, actorID)
	if err != nil {
		return err
	}

	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.E(apperrors.KindNotFound, "message %d", messageID)
		}
		return err
	}
	if message.RoomID != roomID {
		return apperrors.E(apperrors.KindNotFound, "message %d not in room %s", messageID, roomID)
	}
	if message.SenderID != actorID {
		return apperrors.E(apperrors.KindPermissionDenied, "only the sender may delete a message")
	}

	unlock := s.roomLocks.Lock(roomID)
	err = s.messageRepo.DeleteDirect(roomID, messageID)
	unlock()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.E(apperrors.KindNotFound, "message %d", messageID)
		}
		return fmt.Errorf("delete from room %s: %w", roomID, err)
	}

	s.messageCache.InvalidateRoomUnread(roomID, actorID)
	s.messageCache.InvalidateSummaryList(userA)
	s.messageCache.InvalidateSummaryList(userB)

	s.publishRoom(ctx, roomID)
	s.publishRoomUnread(ctx, roomID, actorID)
	return nil
}

// UnreadCount reports how many messages from fromSenderID are still
// unread in the room. The principal must be a participant, like every
// other room read.
func (s *MessageService) UnreadCount(ctx context.Context, roomID, principal, fromSenderID string) (int64, error) {
	if _, _, err := s.authorizeRoom(ctx, roomID, principal); err != nil {
		return 0, err
	}
	if count, ok := s.messageCache.GetRoomUnread(roomID, fromSenderID); ok {
		return count, nil
	}
	count, err := s.messageRepo.UnreadCountRoom(roomID, fromSenderID)
	if err != nil {
		return 0, fmt.Errorf("unread count for room %s: %w", roomID, err)
	}
	s.messageCache.SetRoomUnread(roomID, fromSenderID, count)
	return count, nil
}

// StreamUnread subscribes the principal to the live unread counter for
// messages from fromSenderID in the room. Counts are scoped per room:
// counterparts in other rooms never leak in.
func (s *MessageService) StreamUnread(ctx context.Context, roomID, principal, fromSenderID string) (*stream.Subscription[int64], error) {
	if _, _, err := s.authorizeRoom(ctx, roomID, principal); err != nil {
		return nil, err
	}
	count, err := s.messageRepo.UnreadCountRoom(roomID, fromSenderID)
	if err != nil {
		return nil, fmt.Errorf("unread count for room %s: %w", roomID, err)
	}
	return s.unread.Subscribe(roomUnreadTopic(roomID, fromSenderID), count), nil
}

// ListConversations returns the principal's direct-room summaries,
// newest activity first.
func (s *MessageService) ListConversations(ctx context.Context, userID string) ([]models.RoomSummary, error) {
	if summaries, ok := s.messageCache.GetSummaryList(userID); ok {
		return summaries, nil
	}
	summaries, err := s.messageRepo.ListRoomSummaries(userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations for %s: %w", userID, err)
	}
	s.messageCache.SetSummaryList(userID, summaries)
	return summaries, nil
}

// PurgeRoom drops a room's log and summary after a relationship ends.
// Best-effort: failures go to the reporter, never to the caller, since
// the relationship removal itself has already succeeded elsewhere.
func (s *MessageService) PurgeRoom(ctx context.Context, roomID string) {
	unlock := s.roomLocks.Lock(roomID)
	err := s.messageRepo.PurgeRoom(roomID)
	unlock()
	if err != nil {
		s.reporter.Report(ctx, "purge room "+roomID, err)
		return
	}
	s.snapshots.Publish(roomTopic(roomID), []models.MessageResponse{})
	if a, b, ok := models.RoomParticipants(roomID); ok {
		s.messageCache.InvalidateSummaryList(a)
		s.messageCache.InvalidateSummaryList(b)
	}
}

func (s *MessageService) authorizeRoom(ctx context.Context, roomID, principal string) (string, string, error) {
	userA, userB, ok := models.RoomParticipants(roomID)
	if !ok {
		return "", "", apperrors.E(apperrors.KindInvalidArgument, "malformed room id %q", roomID)
	}
	if userA == userB {
		return "", "", apperrors.E(apperrors.KindInvalidArgument, "self-addressed conversation")
	}
	if principal != userA && principal != userB {
		return "", "", apperrors.E(apperrors.KindPermissionDenied, "not a participant of room %s", roomID)
	}
	if err := s.checkConverse(ctx, userA, userB); err != nil {
		return "", "", err
	}
	return userA, userB, nil
}

func (s *MessageService) checkConverse(ctx context.Context, userA, userB string) error {
	allowed, err := s.relationship.MayConverse(ctx, userA, userB)
	if err != nil {
		return fmt.Errorf("relationship check: %w", err)
	}
	if !allowed {
		return apperrors.E(apperrors.KindPermissionDenied, "conversation not allowed")
	}
	return nil
}

func (s *MessageService) publishRoom(ctx context.Context, roomID string) {
	messages, err := s.messageRepo.ListRoom(roomID)
	if err != nil {
		s.log.ErrorContext(ctx, "room snapshot failed, closing stream", "room", roomID, "error", err)
		s.snapshots.Fail(roomTopic(roomID), apperrors.E(apperrors.KindUnknown, "room snapshot unavailable"))
		return
	}
	s.snapshots.Publish(roomTopic(roomID), models.ToResponses(messages))
}

func (s *MessageService) publishRoomUnread(ctx context.Context, roomID, fromSenderID string) {
	count, err := s.messageRepo.UnreadCountRoom(roomID, fromSenderID)
	if err != nil {
		s.log.ErrorContext(ctx, "unread recount failed", "room", roomID, "error", err)
		return
	}
	s.messageCache.SetRoomUnread(roomID, fromSenderID, count)
	s.unread.Publish(roomUnreadTopic(roomID, fromSenderID), count)
}
