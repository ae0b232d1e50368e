package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, origins ...string) (*Hub, string) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger, origins)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHub_BroadcastsOrderEvents(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	order := &models.Order{
		OrderNumber:    "361-01HQXYZ",
		Status:         models.OrderReady,
		DeliveryMethod: models.DeliveryMethodPickup,
		CustomerName:   "Aiko",
		TotalAmount:    decimal.RequireFromString("50.73"),
		Items:          []models.OrderItem{{Quantity: 2}, {Quantity: 1}},
	}
	require.NoError(t, hub.OrderStatusChanged(context.Background(), order, models.OrderPreparing))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string      `json:"type"`
		Data OrderUpdate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageOrderStatusChanged, msg.Type)
	assert.Equal(t, "361-01HQXYZ", msg.Data.OrderNumber)
	assert.Equal(t, "Ready for Pickup", msg.Data.StatusLabel)
	assert.Equal(t, models.OrderPreparing, msg.Data.PreviousStatus)
	assert.Equal(t, "50.73", msg.Data.TotalAmount)
	assert.Equal(t, 3, msg.Data.ItemCount)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	_, url := startHub(t, "https://staff.example.com")

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://staff.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}
