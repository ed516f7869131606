package websocket

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Manager 用户ID到推送通道的注册表，每个用户最多一个活跃通道
type Manager struct {
	clients    map[uint]Channel
	logger     *zap.SugaredLogger
	bufferSize int
	mutex      sync.RWMutex

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesDropped  atomic.Int64
}

// Stats 统计信息
type Stats struct {
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int   `json:"active_connections"`
	MessagesSent      int64 `json:"messages_sent"`
	MessagesDropped   int64 `json:"messages_dropped"`
}

// NewManager 创建连接管理器
func NewManager(logger *zap.SugaredLogger, bufferSize int) *Manager {
	return &Manager{
		clients:    make(map[uint]Channel),
		logger:     logger,
		bufferSize: bufferSize,
	}
}

// Register 注册用户的推送通道，关闭并替换该用户之前的通道
// 旧通道在释放锁之后关闭
func (m *Manager) Register(userID uint, ch Channel) {
	m.mutex.Lock()
	old, exists := m.clients[userID]
	m.clients[userID] = ch
	online := len(m.clients)
	m.mutex.Unlock()

	m.totalConnections.Add(1)
	m.logger.Infof("用户 %d 已连接: conn=%s, 当前在线用户数: %d", userID, connID(ch), online)

	if exists && old != ch {
		m.logger.Infof("关闭用户 %d 被替换的旧连接: conn=%s", userID, connID(old))
		old.Close()
	}
}

// Unregister 仅当当前注册的通道就是ch时才移除
func (m *Manager) Unregister(userID uint, ch Channel) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if current, exists := m.clients[userID]; exists && current == ch {
		delete(m.clients, userID)
		m.logger.Infof("用户 %d 已断开连接: conn=%s, 当前在线用户数: %d", userID, connID(ch), len(m.clients))
		return
	}
	m.logger.Debugf("忽略用户 %d 过期连接的注销: conn=%s", userID, connID(ch))
}

// Send 向用户推送 {event, data}，用户不在线时直接忽略
func (m *Manager) Send(userID uint, event string, payload interface{}) {
	m.mutex.RLock()
	ch, online := m.clients[userID]
	if !online {
		m.mutex.RUnlock()
		return
	}

	message := &Message{Event: event, Data: payload}
	data, err := message.ToJSON()
	if err != nil {
		m.mutex.RUnlock()
		m.logger.Errorf("序列化推送消息失败: %v", err)
		return
	}

	ok := ch.Enqueue(data)
	m.mutex.RUnlock()

	if ok {
		m.messagesSent.Add(1)
		return
	}
	m.messagesDropped.Add(1)
	m.logger.Warnf("用户 %d 的推送通道不可用，丢弃事件 %s: conn=%s", userID, event, connID(ch))
}

// HandleWebSocket 升级HTTP连接并为已认证用户注册通道
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("WebSocket升级失败: %w", err)
	}

	client := NewClient(userID, conn, m, m.bufferSize)

	// 确认消息先入队，保证它排在任何推送之前
	confirm := &Message{
		Event: EventConnected,
		Data:  map[string]string{"message": ConnectedMessage},
	}
	if data, err := confirm.ToJSON(); err == nil {
		client.Enqueue(data)
	}
	m.Register(userID, client)

	go client.writePump()
	go client.readPump()
	return nil
}

// IsUserOnline 检查用户是否在线
func (m *Manager) IsUserOnline(userID uint) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, exists := m.clients[userID]
	return exists
}

// OnlineUsers 获取在线用户列表
func (m *Manager) OnlineUsers() []uint {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	users := make([]uint, 0, len(m.clients))
	for userID := range m.clients {
		users = append(users, userID)
	}
	return users
}

// Count 当前在线连接数
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// GetStats 获取统计信息
func (m *Manager) GetStats() Stats {
	return Stats{
		TotalConnections:  m.totalConnections.Load(),
		ActiveConnections: m.Count(),
		MessagesSent:      m.messagesSent.Load(),
		MessagesDropped:   m.messagesDropped.Load(),
	}
}

// Shutdown 关闭所有连接
func (m *Manager) Shutdown() {
	m.logger.Info("正在关闭WebSocket管理器...")

	m.mutex.Lock()
	channels := make([]Channel, 0, len(m.clients))
	for _, ch := range m.clients {
		channels = append(channels, ch)
	}
	m.clients = make(map[uint]Channel)
	m.mutex.Unlock()

	for _, ch := range channels {
		ch.Close()
	}

	m.logger.Info("WebSocket管理器已关闭")
}

// connID 日志中使用的连接标识
func connID(ch Channel) string {
	if c, ok := ch.(*Client); ok {
		return c.ID
	}
	return "-"
}
