package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chezben/config"
	"chezben/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:3000", "https://chezben.cm"}
	assert.True(t, originAllowed("", allowed), "non-browser clients send no Origin")
	assert.True(t, originAllowed("https://chezben.cm", allowed))
	assert.True(t, originAllowed("HTTPS://ChezBen.cm", allowed))
	assert.False(t, originAllowed("https://evil.example", allowed))
	assert.False(t, originAllowed("https://evil.example", nil))
	assert.True(t, originAllowed("https://anything.example", []string{"*"}))
}

func TestServeUserChecksOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "test",
	}
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", ServeUser(cfg, []string{"http://localhost:3000"}, hub, zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	token, err := auth.GenerateAccessToken(cfg, 5, "awa@example.cm", "USER")
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, hub.Online(5))

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://localhost:3000"}})
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Online(5) }, time.Second, 10*time.Millisecond)

	hub.Push(5, "notification", map[string]int{"id": 1})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"notification"`)
}
