package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"chezben/config"
	"chezben/internal/cache"
	"chezben/internal/metrics"
	"chezben/internal/repository"
	"chezben/internal/testutil"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, userID uint, title, message, link string) error {
	return m.Called(ctx, userID, title, message, link).Error(0)
}

type mockImages struct{ mock.Mock }

func (m *mockImages) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, string, error) {
	args := m.Called(ctx, file, folder, publicID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockImages) DeleteByURL(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendPasswordReset(to, code string, validMinutes int) error {
	return m.Called(to, code, validMinutes).Error(0)
}

type push struct {
	UserID uint
	Type   string
	Data   interface{}
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []push
}

func (p *recordingPusher) Push(userID uint, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, push{userID, eventType, data})
}

func (p *recordingPusher) to(userID uint) []push {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []push
	for _, ps := range p.pushes {
		if ps.UserID == userID {
			out = append(out, ps)
		}
	}
	return out
}

// clock is a settable time source shared by services and the memory cooldown.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	db       *gorm.DB
	clock    *clock
	metrics  *metrics.Metrics
	log      *zap.Logger
	listings *repository.ListingRepository
	users    *repository.UserRepository
	views    *repository.ViewRepository
	counter  *ViewCounter
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		clock:    newClock(),
		metrics:  metrics.New("test"),
		log:      zap.NewNop(),
		listings: repository.NewListingRepository(db),
		users:    repository.NewUserRepository(db),
		views:    repository.NewViewRepository(db),
	}
	cooldown := cache.NewMemoryCooldownWithClock(f.clock.Now)
	f.counter = NewViewCounter(f.views, f.listings, cooldown, 5*time.Minute, f.metrics, f.log).WithClock(f.clock.Now)
	return f
}

func (f *fixture) listingService(notifier Notifier, images ImageStore) *ListingService {
	return NewListingService(ListingDeps{
		Listings:    f.listings,
		Categories:  repository.NewCategoryRepository(f.db),
		Users:       f.users,
		Favorites:   repository.NewFavoriteRepository(f.db),
		Views:       f.views,
		Counter:     f.counter,
		Notifier:    notifier,
		Images:      images,
		Limits:      AttributeLimits{MaxKeys: 50, MaxDepth: 4, MaxBytes: 16 << 10},
		PhotoFolder: "chezben",
		HistorySize: 50,
		Log:         f.log,
	})
}

func testJWT() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "chezben-test",
	}
}
