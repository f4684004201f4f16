package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/estagioplus/benefits/models"
	"github.com/estagioplus/benefits/utils"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	utils.PasswordCost = bcrypt.MinCost
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, SeedDemo(ctx, db, 2800))
	require.NoError(t, SeedDemo(ctx, db, 2800))

	var users []models.User
	require.NoError(t, db.Where("email = ?", DemoEmail).Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, 2800, users[0].DailyPointsRate)
	assert.Nil(t, users[0].ContractStartDate)
	assert.Nil(t, users[0].LastAccrualDate)
	assert.True(t, utils.CheckPassword(users[0].PasswordHash, DemoPassword))

	var items, points, online int64
	require.NoError(t, db.Model(&models.Item{}).Count(&items).Error)
	require.NoError(t, db.Model(&models.Point{}).Count(&points).Error)
	require.NoError(t, db.Model(&models.OnlineBenefit{}).Count(&online).Error)
	assert.Equal(t, int64(5), items)
	assert.Equal(t, int64(2), points)
	assert.Equal(t, int64(2), online)
}
