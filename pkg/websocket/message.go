package websocket

import "encoding/json"

// 推送事件名
const (
	EventConnected    = "connected"
	EventNotification = "notification"
)

// ConnectedMessage 握手成功后的确认内容
const ConnectedMessage = "Successfully connected to notifications"

// Message 推送消息信封 {event, data}
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ToJSON 将消息转换为JSON
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Channel 一个用户的实时推送通道
type Channel interface {
	// Enqueue 非阻塞地投递一条已编码的消息，通道已关闭或缓冲区已满时返回false
	Enqueue(data []byte) bool
	// Close 关闭通道，可重复调用
	Close()
}
