package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewInMemoryRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("ip:1"))
	assert.True(t, l.Allow("ip:1"))
	assert.False(t, l.Allow("ip:1"))
	assert.True(t, l.Allow("ip:2"), "keys are independent")

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("ip:1"), "window slid past the first requests")

	now = now.Add(2 * time.Minute)
	l.Sweep()
	assert.Zero(t, l.Len())
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(Authenticate(jwtCfg), RateLimit(NewInMemoryRateLimiter(1, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestPhoneValidator(t *testing.T) {
	require.NoError(t, RegisterValidators())
	v := binding.Validator.Engine().(*validator.Validate)
	type form struct {
		Phone string `binding:"cmphone"`
	}
	for phone, ok := range map[string]bool{
		"":             true,
		"699123456":    true,
		"+23769912345": true,
		"612345":       false,
		"0699123456":   false,
		"+33612345678": false,
	} {
		err := v.Struct(form{Phone: phone})
		assert.Equal(t, ok, err == nil, phone)
	}
}
