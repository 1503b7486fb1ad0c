package service

import (
	"fmt"
	"math"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/notify"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AlertEngine 安全库存预警引擎
//
// 每次台账变更后在同一事务内调用 Evaluate，决定建单/换单/销单；
// 通知投递在事务提交后单独走 Dispatch，投递失败不影响业务结果。
type AlertEngine struct {
	alertRepo *repository.AlertRepository
	userRepo  *repository.UserRepository
	cfg       config.AlertConfig
	channel   notify.Channel
	clock     Clock
	logger    *zap.Logger
}

func NewAlertEngine(
	alertRepo *repository.AlertRepository,
	userRepo *repository.UserRepository,
	cfg config.AlertConfig,
	channel notify.Channel,
	clock Clock,
	logger *zap.Logger,
) *AlertEngine {
	return &AlertEngine{
		alertRepo: alertRepo,
		userRepo:  userRepo,
		cfg:       cfg,
		channel:   channel,
		clock:     clock,
		logger:    logger,
	}
}

// Evaluate 评估某物品当前台账状态，返回本次新建的预警（没有则为nil）。
//
// 必须跑在台账变更的同一个事务里：未解除预警的读取和本次的建单/销单
// 要原子可见，否则并发评估会重复建单。
func (e *AlertEngine) Evaluate(tx *gorm.DB, item *entity.Item) (*entity.Alert, error) {
	now := e.clock.Now()
	alerts := e.alertRepo.WithTx(tx)

	open, err := alerts.ListUnresolved(item.ID)
	if err != nil {
		return nil, fmt.Errorf("查询未解除预警失败: %w", err)
	}

	effective := item.EffectiveInventory()

	// 有效库存回到阈值之上：解除全部未解除预警，不建新单
	if effective >= item.SafetyStockThreshold {
		for i := range open {
			if err := alerts.Resolve(&open[i], now); err != nil {
				return nil, fmt.Errorf("解除预警失败: %w", err)
			}
		}
		return nil, nil
	}

	// 低于阈值且当前无预警：直接建单
	if len(open) == 0 {
		return e.create(alerts, item, effective, now)
	}

	// 已有预警：满足换单条件才销旧建新，否则静默（避免小幅波动刷单）
	last := &open[0]
	if !e.shouldSupersede(last, effective, now) {
		return nil, nil
	}
	for i := range open {
		if err := alerts.Resolve(&open[i], now); err != nil {
			return nil, fmt.Errorf("解除预警失败: %w", err)
		}
	}
	return e.create(alerts, item, effective, now)
}

// shouldSupersede 换单判定：幅度、级别变化、过期三个条件任一命中。
// 比较基准全部用旧预警的快照值，不用当前台账值。
func (e *AlertEngine) shouldSupersede(last *entity.Alert, effective int, now time.Time) bool {
	lastEffective := last.EffectiveInventory()
	lastThreshold := last.SafetyStockThreshold

	if lastThreshold > 0 {
		delta := math.Abs(float64(effective-lastEffective)) / float64(lastThreshold)
		if delta >= e.cfg.SupersedeDelta {
			return true
		}
	}
	if e.severity(effective, lastThreshold) != e.severity(lastEffective, lastThreshold) {
		return true
	}
	if now.Sub(last.CreatedAt) > e.cfg.StaleAfter {
		return true
	}
	return false
}

// severity 级别判定：有效库存/阈值低于CriticalRatio为CRITICAL，否则WARNING
func (e *AlertEngine) severity(effective, threshold int) string {
	if threshold > 0 && float64(effective)/float64(threshold) < e.cfg.CriticalRatio {
		return entity.AlertTypeCritical
	}
	return entity.AlertTypeWarning
}

func (e *AlertEngine) create(alerts *repository.AlertRepository, item *entity.Item, effective int, now time.Time) (*entity.Alert, error) {
	alertType := e.severity(effective, item.SafetyStockThreshold)

	label := "库存预警"
	if alertType == entity.AlertTypeCritical {
		label = "库存告急"
	}
	message := fmt.Sprintf(
		"【%s】%s（%s）有效库存 %d（在库 %d + 在途 %d），已低于安全库存阈值 %d",
		label, item.Name, item.Code,
		effective, item.CurrentInventory, item.PendingPO,
		item.SafetyStockThreshold,
	)

	alert := &entity.Alert{
		ID:                   uuid.New().String(),
		ItemID:               item.ID,
		AlertType:            alertType,
		Message:              message,
		CurrentInventory:     item.CurrentInventory,
		PendingPO:            item.PendingPO,
		UsedInventory:        item.UsedInventory,
		SafetyStockThreshold: item.SafetyStockThreshold,
		CreatedAt:            now,
	}
	if err := alerts.Create(alert); err != nil {
		return nil, fmt.Errorf("创建预警失败: %w", err)
	}
	return alert, nil
}

// Dispatch 向订阅用户投递预警通知。
// 事务提交后调用；单个收件人失败不影响其他收件人，所有失败只记日志。
func (e *AlertEngine) Dispatch(alert *entity.Alert, item *entity.Item) {
	recipients, err := e.userRepo.ListAlertRecipients()
	if err != nil {
		e.logger.Warn("查询预警收件人失败", zap.Error(err))
		recipients = nil
	}
	if len(recipients) == 0 && e.cfg.FallbackEmail != "" {
		recipients = []string{e.cfg.FallbackEmail}
	}
	if len(recipients) == 0 {
		e.logger.Warn("没有可用的预警收件人，跳过通知",
			zap.String("item_code", item.Code),
			zap.String("alert_id", alert.ID),
		)
		return
	}

	subject := fmt.Sprintf("[nimo-ims] %s %s", alert.AlertType, item.Code)
	for _, addr := range recipients {
		if err := e.channel.Send(addr, subject, alert.Message); err != nil {
			e.logger.Warn("预警通知投递失败",
				zap.String("recipient", addr),
				zap.String("alert_id", alert.ID),
				zap.Error(err),
			)
		}
	}
}
