package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/notify"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeClock 固定时钟，测试里手动拨动
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type sentMessage struct {
	Recipient string
	Subject   string
	Body      string
}

// recordingChannel 记录所有投递的通知通道
type recordingChannel struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (c *recordingChannel) Send(recipient, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

func (c *recordingChannel) Sent() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

// failingChannel 总是投递失败的通知通道
type failingChannel struct{}

func (failingChannel) Send(recipient, subject, body string) error {
	return errors.New("smtp: connection refused")
}

type testEnv struct {
	db          *gorm.DB
	repos       *repository.Repositories
	clock       *fakeClock
	rec         *recordingChannel
	engine      *AlertEngine
	inventory   *InventoryService
	procurement *ProcurementService
	items       *ItemService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, &recordingChannel{})
}

func newTestEnvWith(t *testing.T, channel notify.Channel) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	logger := zap.NewNop()

	cfg := config.AlertConfig{
		CriticalRatio:  0.2,
		SupersedeDelta: 0.10,
		StaleAfter:     24 * time.Hour,
		FallbackEmail:  "ops@example.com",
	}
	engine := NewAlertEngine(repos.Alert, repos.User, cfg, channel, clock, logger)

	env := &testEnv{
		db:          db,
		repos:       repos,
		clock:       clock,
		engine:      engine,
		inventory:   NewInventoryService(db, repos.Item, repos.Usage, repos.ActivityLog, engine, logger),
		procurement: NewProcurementService(db, repos.Purchase, repos.Item, repos.ActivityLog, engine, logger),
		items:       NewItemService(db, repos.Item, repos.ActivityLog, engine, logger),
	}
	if rec, ok := channel.(*recordingChannel); ok {
		env.rec = rec
	}
	return env
}
