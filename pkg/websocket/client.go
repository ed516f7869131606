package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Client 表示一个WebSocket客户端连接
type Client struct {
	ID         string          // 连接唯一标识符
	UserID     uint            // 用户ID
	conn       *websocket.Conn // WebSocket连接
	send       chan []byte     // 待发送消息
	manager    *Manager        // 所属的管理器
	closed     bool            // 连接是否已关闭
	closeMutex sync.Mutex      // 保护closed和send的关闭
}

// NewClient 创建新的客户端实例
func NewClient(userID uint, conn *websocket.Conn, manager *Manager, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, bufferSize),
		manager: manager,
	}
}

// Enqueue 投递消息到发送缓冲区
func (c *Client) Enqueue(data []byte) bool {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close 关闭客户端连接
// 只在持锁时修改状态，关闭帧的写入在锁外进行
func (c *Client) Close() {
	c.closeMutex.Lock()
	if c.closed {
		c.closeMutex.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.closeMutex.Unlock()

	// WriteControl可与写协程并发调用
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.conn.Close()
}

// readPump 读取客户端消息，仅用于感知连接关闭
func (c *Client) readPump() {
	defer func() {
		c.manager.Unregister(c.UserID, c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.manager.logger.Debugf("用户 %d 连接异常关闭: conn=%s, err=%v", c.UserID, c.ID, err)
			}
			return
		}
	}
}

// writePump 将缓冲区中的消息写入连接
func (c *Client) writePump() {
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.manager.logger.Debugf("用户 %d 写入消息失败: conn=%s, err=%v", c.UserID, c.ID, err)
			c.manager.Unregister(c.UserID, c)
			c.Close()
			return
		}
	}
}
