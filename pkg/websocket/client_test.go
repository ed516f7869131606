package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// dialManager 启动一个把请求交给m的测试服务并建立连接，onConnect在注册完成后调用
func dialManager(t *testing.T, m *Manager, userID uint, onConnect func()) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.HandleWebSocket(w, r, userID); err != nil {
			t.Errorf("HandleWebSocket() error: %v", err)
			return
		}
		if onConnect != nil {
			onConnect()
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		m.Shutdown()
	})
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	var msg Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	return msg
}

func TestHandleWebSocketConfirmationComesFirst(t *testing.T) {
	t.Parallel()
	m := newTestManager()

	// 注册完成后立即推送
	conn := dialManager(t, m, 7, func() {
		m.Send(7, EventNotification, "first")
	})

	if got := readMessage(t, conn); got.Event != EventConnected {
		t.Fatalf("第一条消息: got %q, want %q", got.Event, EventConnected)
	}
	if got := readMessage(t, conn); got.Event != EventNotification || got.Data != "first" {
		t.Errorf("第二条消息: got %+v", got)
	}
}

func TestClientIDInConnectionLogs(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	m := NewManager(zap.New(core).Sugar(), 16)

	conn := dialManager(t, m, 9, nil)
	readMessage(t, conn)

	m.mutex.RLock()
	client, ok := m.clients[9].(*Client)
	m.mutex.RUnlock()
	if !ok {
		t.Fatal("用户9应注册了真实连接")
	}
	if _, err := uuid.Parse(client.ID); err != nil {
		t.Errorf("连接ID不是UUID: %q", client.ID)
	}
	if logs.FilterMessageSnippet("conn=" + client.ID).Len() == 0 {
		t.Error("注册日志应包含连接ID")
	}

	// 新连接替换旧连接时记录旧连接ID
	m.Register(9, &fakeChannel{})
	if logs.FilterMessageSnippet("旧连接: conn=" + client.ID).Len() != 1 {
		t.Error("替换日志应包含旧连接ID")
	}
}
