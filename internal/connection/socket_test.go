package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testSocketConfig(url string) SocketConfig {
	cfg := DefaultSocketConfig()
	cfg.URL = url
	cfg.BufferSize = 100
	return cfg
}

func TestSocket_Connect(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	sock := NewSocket(testSocketConfig(wsURL(server)), nil)

	if err := sock.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !sock.IsConnected() {
		t.Error("expected IsConnected to return true")
	}

	if err := sock.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if sock.IsConnected() {
		t.Error("expected IsConnected to return false after Close")
	}
}

func TestSocket_Send(t *testing.T) {
	var mu sync.Mutex
	var received []byte

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	sock := NewSocket(testSocketConfig(wsURL(server)), nil)

	if err := sock.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer sock.Close()

	want := `{"type":"JoinAuctionGroup","auctionId":"auction-1"}`
	if err := sock.Send([]byte(want)); err != nil {
		t.Errorf("Send failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if string(received) != want {
		t.Errorf("received %q, want %q", received, want)
	}
}

func TestSocket_Frames(t *testing.T) {
	frames := []string{
		`{"type":"connected","clientId":"sess-1"}`,
		`{"type":"BidUpdate","data":{"auctionId":"a","currentBid":1}}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	sock := NewSocket(testSocketConfig(wsURL(server)), nil)

	if err := sock.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer sock.Close()

	timeout := time.After(2 * time.Second)
	var received []string
	for i := 0; i < len(frames); i++ {
		select {
		case f := <-sock.Frames():
			received = append(received, string(f.Data))
			if f.ReceivedAt.IsZero() {
				t.Error("ReceivedAt should not be zero")
			}
		case <-timeout:
			t.Fatalf("timeout, received %d of %d frames", len(received), len(frames))
		}
	}

	for i, want := range frames {
		if received[i] != want {
			t.Errorf("frame %d: got %q, want %q", i, received[i], want)
		}
	}
}

func TestSocket_FramesClosedOnClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	sock := NewSocket(testSocketConfig(wsURL(server)), nil)

	if err := sock.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	sock.Close()

	select {
	case _, ok := <-sock.Frames():
		if ok {
			t.Error("expected frames channel to be closed, got a frame")
		}
	case <-time.After(2 * time.Second):
		t.Error("frames channel not closed after Close")
	}
}

func TestSocket_ErrorOnServerClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})
	defer server.Close()

	sock := NewSocket(testSocketConfig(wsURL(server)), nil)

	if err := sock.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer sock.Close()

	select {
	case err := <-sock.Errors():
		if err == nil {
			t.Error("expected non-nil error")
		}
	case <-time.After(2 * time.Second):
		t.Error("no error reported after server closed the connection")
	}
}

func TestSocket_SendNotConnected(t *testing.T) {
	sock := NewSocket(testSocketConfig("ws://localhost:12345"), nil)

	if err := sock.Send([]byte("test")); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestSocket_DoubleClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	sock := NewSocket(testSocketConfig(wsURL(server)), nil)

	if err := sock.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := sock.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := sock.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestSocket_ConnectAfterClose(t *testing.T) {
	sock := NewSocket(testSocketConfig("ws://localhost:12345"), nil)
	sock.Close()

	if err := sock.Connect(context.Background()); err != ErrAlreadyClosed {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}
}
