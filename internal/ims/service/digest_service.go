package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/notify"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// digestLockKeyPrefix 每日汇总的分布式锁key前缀（按日期）
const digestLockKeyPrefix = "ims:digest:"

// DigestService 每日库存预警汇总
// 独立于逐单预警状态机，只读快照计数，不持有行锁
type DigestService struct {
	alertRepo *repository.AlertRepository
	userRepo  *repository.UserRepository
	rdb       *redis.Client
	cfg       config.AlertConfig
	channel   notify.Channel
	clock     Clock
	logger    *zap.Logger
}

func NewDigestService(
	alertRepo *repository.AlertRepository,
	userRepo *repository.UserRepository,
	rdb *redis.Client,
	cfg config.AlertConfig,
	channel notify.Channel,
	clock Clock,
	logger *zap.Logger,
) *DigestService {
	return &DigestService{
		alertRepo: alertRepo,
		userRepo:  userRepo,
		rdb:       rdb,
		cfg:       cfg,
		channel:   channel,
		clock:     clock,
		logger:    logger,
	}
}

// SendDailyDigest 发送当日汇总。
// redis SetNX按日期抢锁，多实例部署时只有一个实例真正发送。
func (s *DigestService) SendDailyDigest(ctx context.Context) error {
	now := s.clock.Now()
	if s.rdb != nil {
		key := digestLockKeyPrefix + now.Format("2006-01-02")
		ok, err := s.rdb.SetNX(ctx, key, 1, 48*time.Hour).Result()
		if err != nil {
			s.logger.Warn("抢占每日汇总锁失败，继续发送", zap.Error(err))
		} else if !ok {
			s.logger.Info("每日汇总已由其他实例发送，跳过")
			return nil
		}
	}

	count, err := s.alertRepo.CountUnresolved()
	if err != nil {
		return fmt.Errorf("统计未解除预警失败: %w", err)
	}

	recipients, err := s.userRepo.ListDigestRecipients()
	if err != nil {
		s.logger.Warn("查询汇总收件人失败", zap.Error(err))
		recipients = nil
	}
	if len(recipients) == 0 && s.cfg.FallbackEmail != "" {
		recipients = []string{s.cfg.FallbackEmail}
	}
	if len(recipients) == 0 {
		s.logger.Info("没有汇总收件人，跳过每日汇总")
		return nil
	}

	subject := fmt.Sprintf("[nimo-ims] 每日库存预警汇总 %s", now.Format("2006-01-02"))
	body := fmt.Sprintf("截至 %s，共有 %d 条未解除的库存预警。", now.Format("2006-01-02 15:04"), count)
	if count == 0 {
		body = fmt.Sprintf("截至 %s，所有库存预警均已解除。", now.Format("2006-01-02 15:04"))
	}

	for _, addr := range recipients {
		if err := s.channel.Send(addr, subject, body); err != nil {
			s.logger.Warn("每日汇总投递失败",
				zap.String("recipient", addr),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("每日汇总发送完成",
		zap.Int64("unresolved_alerts", count),
		zap.Int("recipients", len(recipients)),
	)
	return nil
}

// RunScheduler 阻塞运行每日汇总调度，每天在配置的整点触发一次。
// ctx取消后退出。
func (s *DigestService) RunScheduler(ctx context.Context) {
	for {
		next := nextRunAt(s.clock.Now(), s.cfg.DigestHour)
		s.logger.Info("每日汇总已排程", zap.Time("next_run", next))

		timer := time.NewTimer(next.Sub(s.clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := s.SendDailyDigest(ctx); err != nil {
				s.logger.Error("每日汇总发送失败", zap.Error(err))
			}
		}
	}
}

// nextRunAt 下一个触发时刻：今天的hour整点，已过则顺延到明天
func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
