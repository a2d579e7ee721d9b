package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/service"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/stream"
	"github.com/gofiber/websocket/v2"
)

// WebSocketHandler bridges the core's live subscriptions onto websocket
// connections: one connection subscribes to either a room or a group
// feed and receives full snapshots plus unread counters as they change.
type WebSocketHandler struct {
	messageService  *service.MessageService
	groupService    *service.GroupService
	presenceService *service.PresenceService
	log             *slog.Logger
}

func NewWebSocketHandler(
	messageService *service.MessageService,
	groupService *service.GroupService,
	presenceService *service.PresenceService,
	log *slog.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		messageService:  messageService,
		groupService:    groupService,
		presenceService: presenceService,
		log:             log,
	}
}

type wsFrame struct {
	Type     string                   `json:"type"`
	Messages []models.MessageResponse `json:"messages,omitempty"`
	Unread   *int64                   `json:"unread,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// HandleRoom streams a direct room: snapshots plus the caller's unread
// badge for the counterpart's messages.
func (h *WebSocketHandler) HandleRoom(c *websocket.Conn) {
	userID := c.Locals("userID").(string)
	roomID := c.Params("roomId")
	ctx := context.Background()

	sub, err := h.messageService.Stream(ctx, roomID, userID)
	if err != nil {
		h.closeWithError(c, err)
		return
	}
	defer sub.Cancel()

	var unreadSub *stream.Subscription[int64]
	if peerA, peerB, ok := models.RoomParticipants(roomID); ok {
		peer := peerA
		if userID == peerA {
			peer = peerB
		}
		if unreadSub, err = h.messageService.StreamUnread(ctx, roomID, userID, peer); err != nil {
			h.closeWithError(c, err)
			return
		}
		defer unreadSub.Cancel()
	}

	h.pump(c, userID, sub, unreadSub)
}

// HandleGroup streams a group log plus the member's unread badge.
func (h *WebSocketHandler) HandleGroup(c *websocket.Conn) {
	userID := c.Locals("userID").(string)
	groupID := c.Params("id")
	ctx := context.Background()

	sub, err := h.groupService.StreamMessages(ctx, groupID, userID)
	if err != nil {
		h.closeWithError(c, err)
		return
	}
	defer sub.Cancel()

	unreadSub, err := h.groupService.StreamUnread(ctx, userID, groupID)
	if err != nil {
		h.closeWithError(c, err)
		return
	}
	defer unreadSub.Cancel()

	h.pump(c, userID, sub, unreadSub)
}

// pump forwards subscription events until the client goes away. A
// goroutine drains client reads so pings and closure are noticed; the
// writer stays single-threaded on this connection.
func (h *WebSocketHandler) pump(
	c *websocket.Conn,
	userID string,
	snapshots *stream.Subscription[[]models.MessageResponse],
	unread *stream.Subscription[int64],
) {
	ctx := context.Background()
	if err := h.presenceService.SetOnline(ctx, userID); err != nil {
		h.log.Warn("presence online update failed", "user", userID, "error", err)
	}
	defer func() {
		if err := h.presenceService.SetOffline(ctx, userID); err != nil {
			h.log.Warn("presence offline update failed", "user", userID, "error", err)
		}
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
			if err := h.presenceService.Heartbeat(ctx, userID); err != nil {
				h.log.Warn("presence heartbeat failed", "user", userID, "error", err)
			}
		}
	}()

	var unreadCh <-chan stream.Event[int64]
	if unread != nil {
		unreadCh = unread.C()
	}

	for {
		select {
		case ev, ok := <-snapshots.C():
			if !ok {
				return
			}
			if ev.Err != nil {
				h.writeFrame(c, wsFrame{Type: "error", Error: ev.Err.Error()})
				return
			}
			if !h.writeFrame(c, wsFrame{Type: "snapshot", Messages: ev.Snapshot}) {
				return
			}
		case ev, ok := <-unreadCh:
			if !ok {
				unreadCh = nil
				continue
			}
			if ev.Err != nil {
				continue
			}
			count := ev.Snapshot
			if !h.writeFrame(c, wsFrame{Type: "unread", Unread: &count}) {
				return
			}
		case <-closed:
			return
		}
	}
}

func (h *WebSocketHandler) writeFrame(c *websocket.Conn, frame wsFrame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("marshal ws frame", "error", err)
		return false
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		return false
	}
	return true
}

func (h *WebSocketHandler) closeWithError(c *websocket.Conn, err error) {
	h.log.Warn("websocket subscription rejected", "error", err)
	h.writeFrame(c, wsFrame{Type: "error", Error: "subscription rejected"})
	_ = c.Close()
}
