package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dungji/dungji-market-backend/pkg/logger"
)

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type       string `json:"type"` // subscribe_groupbuy, unsubscribe_groupbuy
	GroupBuyID uint   `json:"groupbuy_id"`
}

const (
	MessageSubscribeGroupBuy   = "subscribe_groupbuy"
	MessageUnsubscribeGroupBuy = "unsubscribe_groupbuy"
)

// Client WebSocket 클라이언트
type Client struct {
	Hub           *Hub
	Conn          *Conn
	UserID        uint
	Send          chan []byte
	GroupBuys     map[uint]bool // 상태 변경을 구독 중인 공구 IDs
	mu            sync.RWMutex
	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

// NewClient 연결 직후 등록용 클라이언트 생성
func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		UserID:    userID,
		Send:      make(chan []byte, 256),
		GroupBuys: make(map[uint]bool),
	}
}

// Hub WebSocket 연결 관리자
type Hub struct {
	// 등록된 클라이언트들 (UserID -> []*Client - 멀티 디바이스 지원)
	clients map[uint][]*Client

	// 공구별 구독자 (GroupBuyID -> map[UserID]bool)
	rooms map[uint]map[uint]bool

	register   chan *Client
	unregister chan *Client

	// 공구 구독자 브로드캐스트
	broadcast chan *BroadcastMessage

	// 특정 사용자 전송 (알림)
	direct chan *DirectMessage

	done chan struct{}

	mu sync.RWMutex
}

// BroadcastMessage 브로드캐스트 메시지
type BroadcastMessage struct {
	RoomID   uint
	Message  []byte
	SenderID uint // 발신자는 제외 (0이면 전원)
}

type DirectMessage struct {
	UserID  uint
	Message []byte
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		rooms:      make(map[uint]map[uint]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		direct:     make(chan *DirectMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run Hub 실행. Stop이 호출되면 반환한다.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			if users, ok := h.rooms[message.RoomID]; ok {
				for userID := range users {
					if message.SenderID != 0 && userID == message.SenderID {
						continue
					}
					h.deliver(userID, message.Message)
				}
			}
			h.mu.RUnlock()

		case message := <-h.direct:
			h.mu.RLock()
			h.deliver(message.UserID, message.Message)
			h.mu.RUnlock()
		}
	}
}

// Stop Run 루프 종료
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// deliver h.mu 읽기 잠금 상태에서 호출
func (h *Hub) deliver(userID uint, message []byte) {
	for _, client := range h.clients[userID] {
		select {
		case client.Send <- message:
		default:
			// Send 채널이 막혀있음 - 비동기로 정리
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"user_id": userID,
			})
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList, ok := h.clients[client.UserID]
	if !ok {
		return
	}

	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if !found {
		return
	}

	if len(newList) == 0 {
		delete(h.clients, client.UserID)

		client.mu.RLock()
		for roomID := range client.GroupBuys {
			if users, ok := h.rooms[roomID]; ok {
				delete(users, client.UserID)
				if len(users) == 0 {
					delete(h.rooms, roomID)
				}
			}
		}
		client.mu.RUnlock()
	} else {
		h.clients[client.UserID] = newList
	}

	close(client.Send)
	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(newList),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
	h.rooms = make(map[uint]map[uint]bool)
}

// JoinRoom 공구 상태 구독
func (h *Hub) JoinRoom(userID, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList, ok := h.clients[userID]
	if !ok {
		return
	}
	for _, client := range clientList {
		client.mu.Lock()
		client.GroupBuys[roomID] = true
		client.mu.Unlock()
	}

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uint]bool)
	}
	h.rooms[roomID][userID] = true
}

// LeaveRoom 공구 상태 구독 해제
func (h *Hub) LeaveRoom(userID, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients[userID] {
		client.mu.Lock()
		delete(client.GroupBuys, roomID)
		client.mu.Unlock()
	}

	if users, ok := h.rooms[roomID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// SendToRoom 공구 구독자 전체에 전송
func (h *Hub) SendToRoom(roomID uint, message interface{}, senderID uint) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return err
	}

	select {
	case h.broadcast <- &BroadcastMessage{RoomID: roomID, Message: data, SenderID: senderID}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"room_id": roomID,
		})
	}
	return nil
}

// SendToUser 사용자의 모든 세션에 전송. 오프라인이면 버린다.
func (h *Hub) SendToUser(userID uint, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return err
	}

	select {
	case h.direct <- &DirectMessage{UserID: userID, Message: data}:
	default:
		logger.Warn("Direct channel full, message dropped", map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsUserOnline 사용자 온라인 여부 확인
func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// RoomSubscribers 공구 구독 중인 사용자 목록
func (h *Hub) RoomSubscribers(roomID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var users []uint
	for userID := range h.rooms[roomID] {
		users = append(users, userID)
	}
	return users
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	switch msg.Type {
	case MessageSubscribeGroupBuy:
		if msg.GroupBuyID != 0 {
			h.JoinRoom(client.UserID, msg.GroupBuyID)
		}
	case MessageUnsubscribeGroupBuy:
		h.LeaveRoom(client.UserID, msg.GroupBuyID)
	}
}
