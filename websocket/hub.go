package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"vehicleoffer_go/lifecycle"
	"vehicleoffer_go/models"
	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 推送消息类型
const (
	TypeSnapshot     = "snapshot"
	TypeCountdown    = "countdown"
	TypeWindowClosed = "window_closed"
	TypePong         = "pong"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// WSMessage WebSocket消息结构
type WSMessage struct {
	Type      string      `json:"type"`
	ListingID string      `json:"listing_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// CountdownData 倒计时推送内容
type CountdownData struct {
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	Expired bool   `json:"expired"`
	Text    string `json:"text"`
}

// ListingReader 读取发布详情
type ListingReader interface {
	Get(ctx context.Context, id string, viewer *services.Session) (*services.ListingView, error)
}

// Client 一个发布页面的WebSocket连接
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	listingID string
	Send      chan *WSMessage

	done     chan struct{}
	doneOnce sync.Once

	mu            sync.Mutex
	stopCountdown context.CancelFunc
}

// Hub 按发布划分房间，向房间内连接推送事件和倒计时
type Hub struct {
	listings ListingReader
	events   *services.EventPublisher
	rdb      *redis.Client
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

// NewHub 创建Hub
func NewHub(listings ListingReader, events *services.EventPublisher, rdb *redis.Client, interval time.Duration, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Hub{
		listings: listings,
		events:   events,
		rdb:      rdb,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*Client]bool),
	}
}

// SetClock 替换时钟
func (h *Hub) SetClock(now func() time.Time) {
	h.now = now
}

// Run 开始接收领域事件，ctx取消后停止
// 有Redis时订阅pub/sub（多实例同步），否则直接监听本进程事件
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		if h.events != nil {
			h.events.Subscribe(h.Dispatch)
		}
		h.logger.Info("✅ WebSocket hub started (local events)")
		return
	}

	go h.subscribeToRedis(ctx)
	h.logger.Info("✅ WebSocket hub started (redis pub/sub)")
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, services.EventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event services.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn("invalid event payload", zap.Error(err))
				continue
			}
			h.Dispatch(event)
		}
	}
}

// Dispatch 将事件推送到对应发布的房间
func (h *Hub) Dispatch(event services.Event) {
	switch event.Type {
	case services.EventOfferCreated, services.EventListingSold:
	default:
		return
	}

	message := &WSMessage{
		Type:      event.Type,
		ListingID: event.ListingID,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}

	for _, client := range h.roomClients(event.ListingID) {
		client.send(message)
		if event.Type == services.EventListingSold {
			client.cancelCountdown()
		}
	}
}

// Viewers 当前查看某发布的连接数
func (h *Hub) Viewers(listingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[listingID])
}

func (h *Hub) roomClients(listingID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[listingID]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.listingID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[c.listingID] = room
	}
	room[c] = true
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.listingID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.listingID)
		}
	}
	h.mu.Unlock()

	c.close()
}

func newClient(h *Hub, conn *websocket.Conn, listingID string) *Client {
	return &Client{
		hub:       h,
		conn:      conn,
		listingID: listingID,
		Send:      make(chan *WSMessage, 256),
		done:      make(chan struct{}),
	}
}

// HandleConnection GET /ws/listings/:id
func (h *Hub) HandleConnection(c *gin.Context) {
	listingID := c.Param("id")

	view, err := h.listings.Get(c.Request.Context(), listingID, nil)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.NotFound(c, "listing not found")
			return
		}
		utils.ServiceUnavailable(c, services.ConnectivityMessage(err))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn, listingID)
	h.join(client)
	h.logger.Debug("viewer connected", zap.String("listing_id", listingID), zap.Int("viewers", h.Viewers(listingID)))

	client.send(&WSMessage{Type: TypeSnapshot, ListingID: listingID, Data: view, Timestamp: h.now().Unix()})
	if view.Status == models.ListingStatusActive {
		client.startCountdown(view.EndTime)
	}

	go client.writePump()
	go client.readPump()
}

// startCountdown 启动倒计时推送，连接关闭或发布售出时停止
func (c *Client) startCountdown(endTime time.Time) {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.stopCountdown = cancel
	c.mu.Unlock()

	go func() {
		defer cancel()
		for r := range lifecycle.Countdown(ctx, endTime, c.hub.now, c.hub.interval) {
			if r.Expired {
				c.send(&WSMessage{Type: TypeWindowClosed, ListingID: c.listingID, Timestamp: c.hub.now().Unix()})
				return
			}
			c.send(&WSMessage{
				Type:      TypeCountdown,
				ListingID: c.listingID,
				Data: CountdownData{
					Hours:   r.Hours,
					Minutes: r.Minutes,
					Text:    lifecycle.FormatTimeRemaining(r),
				},
				Timestamp: c.hub.now().Unix(),
			})
		}
	}()
}

func (c *Client) cancelCountdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopCountdown != nil {
		c.stopCountdown()
		c.stopCountdown = nil
	}
}

// send 非阻塞发送，连接已关闭或缓冲区满时丢弃
func (c *Client) send(message *WSMessage) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.Send <- message:
	case <-c.done:
	default:
		c.hub.logger.Warn("websocket send buffer full", zap.String("listing_id", c.listingID))
	}
}

func (c *Client) close() {
	c.doneOnce.Do(func() {
		close(c.done)
		c.cancelCountdown()
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump 读取客户端消息，仅处理ping；连接断开时离开房间
func (c *Client) readPump() {
	defer c.hub.leave(c)

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.String("listing_id", c.listingID), zap.Error(err))
			}
			return
		}

		var message WSMessage
		if json.Unmarshal(data, &message) == nil && message.Type == "ping" {
			c.send(&WSMessage{Type: TypePong, Timestamp: c.hub.now().Unix()})
		}
	}
}

// writePump 写出消息和心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.leave(c)
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
