package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, string) {
	hub, url, _ := startHubWithCancel(t, nil)
	return hub, url
}

// startHubWithCancel reports each finished ServeWs call on served when non-nil.
func startHubWithCancel(t *testing.T, served chan<- struct{}) (*Hub, string, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c, func(token string) error {
			if token != "secret" {
				return errors.New("bad token")
			}
			return nil
		})
		if served != nil {
			served <- struct{}{}
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	stop := func() {
		cancel()
		<-stopped
	}
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", stop
}

func TestPublishReachesConnectedClient(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=secret", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(EventStockLow, map[string]int{"current_stock": 1})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, EventStockLow, msg.Event)
	assert.Equal(t, 1, msg.Data["current_stock"])
}

func TestServeWsRejectsBadToken(t *testing.T) {
	hub, url := startHub(t)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, hub.ClientCount())
}

func TestPublishOnNilHub(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish(EventInvoiceCreated, nil) })
}

func TestConnectAfterShutdownDoesNotHang(t *testing.T) {
	served := make(chan struct{}, 1)
	_, url, stop := startHubWithCancel(t, served)
	stop()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=secret", nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeWs blocked on a stopped hub")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestClientDisconnectAfterShutdownDoesNotHang(t *testing.T) {
	hub, url, stop := startHubWithCancel(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=secret", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	stop()
	assert.Zero(t, hub.ClientCount())
	require.NoError(t, conn.Close())

	select {
	case <-hub.done:
	default:
		t.Fatal("hub not marked done after Run returned")
	}
}
