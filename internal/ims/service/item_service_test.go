package service

import (
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCreate(t *testing.T) {
	env := newTestEnv(t)

	item, err := env.items.Create(CreateItemRequest{
		Code:                 "  cable-01 ",
		Name:                 "网线",
		Barcode:              "BC-CABLE-01",
		CurrentInventory:     100,
		SafetyStockThreshold: 20,
	}, "test-user-001")
	require.NoError(t, err)
	// 编码归一化为大写并去掉首尾空白
	assert.Equal(t, "CABLE-01", item.Code)
	assert.Equal(t, "pcs", item.Unit)

	// 编码唯一，大小写视为同一个
	_, err = env.items.Create(CreateItemRequest{Code: "Cable-01", Name: "重复"}, "test-user-001")
	assert.ErrorIs(t, err, ErrCodeExists)

	// 建档和台账变更一样留操作日志
	var logCount int64
	env.db.Model(&entity.ActivityLog{}).
		Where("entity_id = ? AND action = ?", item.ID, "create").Count(&logCount)
	assert.EqualValues(t, 1, logCount)
}

func TestItemDelete(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "CABLE-01", 100, 20)

	require.NoError(t, env.items.Delete(item.ID, "test-user-001"))

	// 软删除后档案不可见，但删除动作本身有日志可查
	_, err := env.items.Get(item.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	var log entity.ActivityLog
	require.NoError(t, env.db.
		Where("entity_id = ? AND action = ?", item.ID, "delete").First(&log).Error)
	assert.Equal(t, "test-user-001", log.OperatorName)
	assert.Equal(t, item.Code, log.EntityCode)

	// 重复删除直接404
	assert.ErrorIs(t, env.items.Delete(item.ID, "test-user-001"), ErrItemNotFound)
}

func TestItemLookup(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "CABLE-01", 100, 20)

	got, err := env.items.Lookup(item.Barcode)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	got, err = env.items.Lookup("CABLE-01")
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, err = env.items.Lookup("NOPE")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// 阈值调整会立刻重评预警：调高可能触发、调低可能解除
func TestItemUpdateThresholdReevaluates(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "CABLE-01", 50, 20)
	require.Empty(t, openAlerts(t, env, item.ID))

	threshold := 100
	_, err := env.items.Update(item.ID, UpdateItemRequest{SafetyStockThreshold: &threshold}, "test-user-001")
	require.NoError(t, err)
	require.Len(t, openAlerts(t, env, item.ID), 1)

	threshold = 30
	_, err = env.items.Update(item.ID, UpdateItemRequest{SafetyStockThreshold: &threshold}, "test-user-001")
	require.NoError(t, err)
	assert.Empty(t, openAlerts(t, env, item.ID))
}

func TestItemListLowStock(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedTestItem(t, env.db, "LOW-01", 5, 100)
	testutil.SeedTestItem(t, env.db, "OK-01", 500, 100)
	testutil.SeedTestItem(t, env.db, "NOTHRESH-01", 0, 0)

	items, total, err := env.items.List(repository.ItemListParams{LowStock: true, Page: 1, Size: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "LOW-01", items[0].Code)
}
