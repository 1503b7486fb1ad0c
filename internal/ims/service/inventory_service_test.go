package service

import (
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUsage(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "GLOVE-01", 200, 100)

	usage, err := env.inventory.RecordUsage(RecordUsageRequest{
		Barcode:    item.Barcode,
		UserName:   "张三",
		Quantity:   30,
		Department: "产线一",
	})
	require.NoError(t, err)
	assert.Equal(t, item.ID, usage.ItemID)
	assert.Equal(t, 30, usage.QuantityUsed)
	assert.Equal(t, env.clock.now, usage.UsedAt)

	var got entity.Item
	require.NoError(t, env.db.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, 170, got.CurrentInventory)
	assert.Equal(t, 30, got.UsedInventory)

	// 阈值之上不出预警、不发通知
	assert.Empty(t, openAlerts(t, env, item.ID))
	assert.Empty(t, env.rec.Sent())

	// 领用会留操作日志
	var logCount int64
	env.db.Model(&entity.ActivityLog{}).Where("entity_id = ? AND action = ?", item.ID, "consume").Count(&logCount)
	assert.EqualValues(t, 1, logCount)
}

func TestRecordUsageByQRCodeAndCode(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "GLOVE-01", 200, 10)
	item.QRCodeID = "QR-GLOVE-01"
	require.NoError(t, env.db.Save(item).Error)

	for _, code := range []string{"QR-GLOVE-01", "GLOVE-01"} {
		_, err := env.inventory.RecordUsage(RecordUsageRequest{
			Barcode: code, UserName: "张三", Quantity: 1,
		})
		require.NoError(t, err, "lookup by %s", code)
	}
}

func TestRecordUsageInsufficientInventory(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "GLOVE-01", 5, 100)

	_, err := env.inventory.RecordUsage(RecordUsageRequest{
		Barcode: item.Barcode, UserName: "张三", Quantity: 10,
	})
	var insufficient *InsufficientInventoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Available)
	assert.Equal(t, 10, insufficient.Requested)

	// 失败的领用不留任何痕迹：台账不动、无领用记录、无预警
	var got entity.Item
	require.NoError(t, env.db.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, 5, got.CurrentInventory)
	assert.Equal(t, 0, got.UsedInventory)

	var usageCount int64
	env.db.Model(&entity.Usage{}).Where("item_id = ?", item.ID).Count(&usageCount)
	assert.EqualValues(t, 0, usageCount)
	assert.Empty(t, openAlerts(t, env, item.ID))
}

func TestRecordUsageInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "GLOVE-01", 100, 10)

	_, err := env.inventory.RecordUsage(RecordUsageRequest{
		Barcode: item.Barcode, UserName: "张三", Quantity: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = env.inventory.RecordUsage(RecordUsageRequest{
		Barcode: item.Barcode, UserName: "张三", Quantity: -3,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = env.inventory.RecordUsage(RecordUsageRequest{
		Barcode: "NO-SUCH-CODE", UserName: "张三", Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// 通知投递失败只记日志，领用本身照常成功、预警照常落库
func TestRecordUsageDispatchFailureIsSwallowed(t *testing.T) {
	env := newTestEnvWith(t, failingChannel{})
	item := testutil.SeedTestItem(t, env.db, "GLOVE-01", 50, 100)

	_, err := env.inventory.RecordUsage(RecordUsageRequest{
		Barcode: item.Barcode, UserName: "张三", Quantity: 20,
	})
	require.NoError(t, err)
	require.Len(t, openAlerts(t, env, item.ID), 1)
}

func TestAddPendingQuantityResolvesAlert(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "GLOVE-01", 10, 100)

	// 先领用触发预警
	_, err := env.inventory.RecordUsage(RecordUsageRequest{
		Barcode: item.Barcode, UserName: "张三", Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, openAlerts(t, env, item.ID), 1)

	// 手工登记在途，有效库存回到阈值之上
	got, err := env.inventory.AddPendingQuantity(item.ID, 200, "李四")
	require.NoError(t, err)
	assert.Equal(t, 200, got.PendingPO)
	assert.Empty(t, openAlerts(t, env, item.ID))
}

func TestConfirmRestock(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.SeedTestItem(t, env.db, "GLOVE-01", 10, 100)

	_, err := env.inventory.AddPendingQuantity(item.ID, 150, "李四")
	require.NoError(t, err)

	got, err := env.inventory.ConfirmRestock(item.ID, 150, "李四")
	require.NoError(t, err)
	assert.Equal(t, 160, got.CurrentInventory)
	assert.Equal(t, 0, got.PendingPO)

	// 入库量超过登记的在途量时，在途钳到0不出负数
	got, err = env.inventory.ConfirmRestock(item.ID, 40, "李四")
	require.NoError(t, err)
	assert.Equal(t, 200, got.CurrentInventory)
	assert.Equal(t, 0, got.PendingPO)

	_, err = env.inventory.ConfirmRestock(uuid.New().String(), 1, "李四")
	assert.ErrorIs(t, err, ErrItemNotFound)
}
