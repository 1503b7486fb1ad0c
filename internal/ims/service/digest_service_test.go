package service

import (
	"context"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNextRunAt(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)

	// 还没到今天的整点：今天发
	now := time.Date(2026, 3, 2, 6, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, loc), nextRunAt(now, 8))

	// 已经过了整点：顺延到明天
	now = time.Date(2026, 3, 2, 8, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 3, 8, 0, 0, 0, loc), nextRunAt(now, 8))

	now = time.Date(2026, 3, 2, 23, 59, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 3, 8, 0, 0, 0, loc), nextRunAt(now, 8))
}

// newDigest 构造汇总服务；redis传nil走无锁路径
func newDigest(env *testEnv, rec *recordingChannel, clock *fakeClock) *DigestService {
	cfg := config.AlertConfig{
		CriticalRatio:  0.2,
		SupersedeDelta: 0.10,
		StaleAfter:     24 * time.Hour,
		FallbackEmail:  "ops@example.com",
		DigestHour:     8,
	}
	return NewDigestService(env.repos.Alert, env.repos.User, nil, cfg, rec, clock, zap.NewNop())
}

func TestSendDailyDigestFallbackRecipient(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "CABLE-01", 40, 100)
	require.NotNil(t, evaluate(t, env, item))

	rec := &recordingChannel{}
	digest := newDigest(env, rec, env.clock)
	require.NoError(t, digest.SendDailyDigest(context.Background()))

	// 无订阅用户时投兜底地址，正文带未解除计数
	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ops@example.com", sent[0].Recipient)
	assert.Contains(t, sent[0].Subject, "每日库存预警汇总")
	assert.Contains(t, sent[0].Body, "共有 1 条")
}

func TestSendDailyDigestSubscribersOnly(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "CABLE-01", 40, 100)
	require.NotNil(t, evaluate(t, env, item))

	// 汇总只看daily_digest订阅，和逐单预警的email_alerts订阅互不相干
	sub := testutil.SeedTestUser(t, env.db, "zhangsan", "zhangsan@example.com", false)
	require.NoError(t, env.db.Model(sub).Update("daily_digest", true).Error)
	testutil.SeedTestUser(t, env.db, "lisi", "lisi@example.com", true)

	rec := &recordingChannel{}
	digest := newDigest(env, rec, env.clock)
	require.NoError(t, digest.SendDailyDigest(context.Background()))

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "zhangsan@example.com", sent[0].Recipient)
}

func TestSendDailyDigestZeroCount(t *testing.T) {
	env := newTestEnv(t)

	rec := &recordingChannel{}
	digest := newDigest(env, rec, env.clock)
	require.NoError(t, digest.SendDailyDigest(context.Background()))

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "均已解除")
}

// 调度器的睡眠时长必须由注入的时钟推出，不能读系统时钟
func TestRunSchedulerUsesInjectedClock(t *testing.T) {
	env := newTestEnv(t)

	// 注入时钟停在整点前1毫秒；如果错用系统时钟，定时器要睡几十年
	clock := &fakeClock{now: time.Date(2100, 1, 1, 7, 59, 59, int(999*time.Millisecond), time.UTC)}
	rec := &recordingChannel{}
	digest := newDigest(env, rec, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go digest.RunScheduler(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for len(rec.Sent()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("digest never fired with injected clock")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
