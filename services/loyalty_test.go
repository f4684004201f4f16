package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/estagioplus/benefits/models"
)

var fixedNow = time.Date(2026, time.October, 18, 15, 30, 0, 0, time.UTC)

func TestAccrueCreditsElapsedDays(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-01"),
		LastAccrualDate:   datePtr("2026-10-15"),
		DailyPointsRate:   2800,
		PointsBase:        100,
	})

	res, err := svc.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.CreditedDays)
	assert.Equal(t, int64(8400), res.CreditedPoints)

	got := reload(t, db, m.ID)
	assert.Equal(t, int64(8500), got.PointsBase)
	require.NotNil(t, got.LastAccrualDate)
	assert.Equal(t, "2026-10-18", storedDate(*got.LastAccrualDate).Format(dateLayout))
	assert.Equal(t, "2026-10-01", storedDate(*got.ContractStartDate).Format(dateLayout))

	var credits []models.AccrualCredit
	require.NoError(t, db.Where("user_id = ?", m.ID).Find(&credits).Error)
	require.Len(t, credits, 1)
	assert.Equal(t, 3, credits[0].Days)
	assert.Equal(t, int64(8400), credits[0].Points)
}

func TestAccrueSameDayIsNoop(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-01"),
		LastAccrualDate:   datePtr("2026-10-17"),
		DailyPointsRate:   2800,
	})

	first, err := svc.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CreditedDays)

	second, err := svc.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreditedDays)

	assert.Equal(t, int64(2800), reload(t, db, m.ID).PointsBase)
}

func TestAccrueFirstCallMaterializesDates(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{DailyPointsRate: 2800})

	res, err := svc.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreditedDays)

	got := reload(t, db, m.ID)
	assert.Equal(t, int64(0), got.PointsBase)
	require.NotNil(t, got.ContractStartDate)
	require.NotNil(t, got.LastAccrualDate)
	assert.Equal(t, "2026-10-18", storedDate(*got.ContractStartDate).Format(dateLayout))
	assert.Equal(t, "2026-10-18", storedDate(*got.LastAccrualDate).Format(dateLayout))

	// next day credits exactly one day
	tomorrow := newTestService(t, db, fixedNow.Add(24*time.Hour))
	res, err = tomorrow.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CreditedDays)
	assert.Equal(t, int64(2800), reload(t, db, m.ID).PointsBase)
}

func TestAccrueTenDaysAfterBaseline(t *testing.T) {
	db := newTestDB(t)
	m := createMember(t, db, models.User{DailyPointsRate: 2800})

	res, err := newTestService(t, db, fixedNow).Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreditedDays)

	res, err = newTestService(t, db, fixedNow.AddDate(0, 0, 10)).Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, res.CreditedDays)

	got := reload(t, db, m.ID)
	assert.Equal(t, int64(28_000), got.PointsBase)
	assert.Equal(t, "2026-10-28", storedDate(*got.LastAccrualDate).Format(dateLayout))
}

func TestAccrueStartWithoutLastCreditsFromStart(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-08"),
		DailyPointsRate:   1000,
	})

	res, err := svc.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, res.CreditedDays)
	assert.Equal(t, int64(10_000), reload(t, db, m.ID).PointsBase)
}

func TestAccrueFutureStartNeverGoesNegative(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-11-01"),
		DailyPointsRate:   2800,
		PointsBase:        500,
	})

	res, err := svc.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreditedDays)

	got := reload(t, db, m.ID)
	assert.Equal(t, int64(500), got.PointsBase)
	require.NotNil(t, got.LastAccrualDate)
	assert.False(t, got.LastAccrualDate.Before(*got.ContractStartDate))
}

func TestAccrueUsesDefaultRateWhenUnset(t *testing.T) {
	db := newTestDB(t)
	settings := testSettings()
	settings.DefaultDailyRate = 3000
	svc := NewLoyaltyService(db, settings, nil).WithClock(func() time.Time { return fixedNow })
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-01"),
		LastAccrualDate:   datePtr("2026-10-16"),
	})
	// bypass the column default to simulate a legacy row
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", m.ID).UpdateColumn("daily_points_rate", 0).Error)

	res, err := svc.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), res.CreditedPoints)
}

func TestAccrueLedgerRejectsSecondCreditForSameDay(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-01"),
		LastAccrualDate:   datePtr("2026-10-17"),
		DailyPointsRate:   2800,
	})
	// another writer already credited today but its balance update is not visible yet
	require.NoError(t, db.Create(&models.AccrualCredit{
		UserID:     m.ID,
		CreditDate: day("2026-10-18"),
		Days:       1,
		Points:     2800,
	}).Error)

	res, err := svc.Accrue(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreditedDays)

	got := reload(t, db, m.ID)
	assert.Equal(t, int64(0), got.PointsBase)
	assert.Equal(t, "2026-10-17", storedDate(*got.LastAccrualDate).Format(dateLayout))
}

func TestAccrueConcurrentCallsCreditOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-01"),
		LastAccrualDate:   datePtr("2026-10-13"),
		DailyPointsRate:   2800,
	})

	const workers = 8
	var wg sync.WaitGroup
	days := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Accrue(context.Background(), m.ID)
			assert.NoError(t, err)
			days[i] = res.CreditedDays
		}(i)
	}
	wg.Wait()

	total := 0
	for _, d := range days {
		total += d
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, int64(5*2800), reload(t, db, m.ID).PointsBase)
}

func TestLoyaltyOperationsReportMissingMember(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	ctx := context.Background()

	_, err := svc.Accrue(ctx, 999)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = svc.Progress(ctx, 999)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = svc.ClaimMonthlyBonus(ctx, 999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestProgressMilestones(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{PointsBase: 520_000, DailyPointsRate: 2800})

	view, err := svc.Progress(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), view.Meta)
	assert.Equal(t, int64(520_000), view.Points)
	assert.InDelta(t, 0.52, view.Percent, 1e-9)
	assert.Equal(t, 2800, view.DailyRate)
	assert.Equal(t, "MONTH-2026-10", view.MonthCode)
	assert.True(t, view.MonthBonusAvailable)
	assert.Nil(t, view.LastAccrualDate)

	require.Len(t, view.Milestones, 4)
	labels := []string{"3 months", "6 months", "9 months", "12 months completed"}
	reached := []bool{true, true, false, false}
	for i, ms := range view.Milestones {
		assert.Equal(t, labels[i], ms.Label)
		assert.Equal(t, reached[i], ms.Reached, ms.Label)
	}
}

func TestProgressClampsPercent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	over := createMember(t, db, models.User{Email: "over@example.com", PointsBase: 1_250_000})
	zero := createMember(t, db, models.User{Email: "zero@example.com"})

	view, err := svc.Progress(context.Background(), over.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, view.Percent)
	for _, ms := range view.Milestones {
		assert.True(t, ms.Reached)
	}

	view, err = svc.Progress(context.Background(), zero.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, view.Percent)
}

func TestProgressDoesNotMutate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-01"),
		LastAccrualDate:   datePtr("2026-10-10"),
		PointsBase:        1000,
	})

	view, err := svc.Progress(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), view.Points)
	require.NotNil(t, view.LastAccrualDate)
	assert.Equal(t, "2026-10-10", *view.LastAccrualDate)

	got := reload(t, db, m.ID)
	assert.Equal(t, int64(1000), got.PointsBase)
	assert.Equal(t, "2026-10-10", storedDate(*got.LastAccrualDate).Format(dateLayout))
}

func TestClaimMonthlyBonusOncePerMonth(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{PointsBase: 100})
	ctx := context.Background()

	res, err := svc.ClaimMonthlyBonus(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "MONTH-2026-10", res.Code)
	assert.Equal(t, 10_000, res.Points)
	assert.Equal(t, int64(10_100), reload(t, db, m.ID).PointsBase)

	_, err = svc.ClaimMonthlyBonus(ctx, m.ID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, int64(10_100), reload(t, db, m.ID).PointsBase)

	view, err := svc.Progress(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, view.MonthBonusAvailable)

	// a new month opens a new code
	next := newTestService(t, db, time.Date(2026, time.November, 1, 9, 0, 0, 0, time.UTC))
	res, err = next.ClaimMonthlyBonus(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "MONTH-2026-11", res.Code)
	assert.Equal(t, int64(20_100), reload(t, db, m.ID).PointsBase)
}

func TestClaimMonthlyBonusDoesNotAccrue(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-01"),
		LastAccrualDate:   datePtr("2026-10-10"),
	})

	_, err := svc.ClaimMonthlyBonus(context.Background(), m.ID)
	require.NoError(t, err)

	got := reload(t, db, m.ID)
	assert.Equal(t, int64(10_000), got.PointsBase)
	assert.Equal(t, "2026-10-10", storedDate(*got.LastAccrualDate).Format(dateLayout))
}

func TestClaimMonthlyBonusHonorsExistingClaim(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{})
	require.NoError(t, db.Create(&models.UserBonus{UserID: m.ID, Code: "MONTH-2026-10", Points: 10_000}).Error)

	_, err := svc.ClaimMonthlyBonus(context.Background(), m.ID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, int64(0), reload(t, db, m.ID).PointsBase)
}

func TestUserBonusUniqueKeyRejectsDuplicate(t *testing.T) {
	db := newTestDB(t)
	m := createMember(t, db, models.User{})
	require.NoError(t, db.Create(&models.UserBonus{UserID: m.ID, Code: "MONTH-2026-10", Points: 1}).Error)

	err := db.Create(&models.UserBonus{UserID: m.ID, Code: "MONTH-2026-10", Points: 1}).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestClaimMonthlyBonusConcurrentGrantsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, fixedNow)
	m := createMember(t, db, models.User{})

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
		denied  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClaimMonthlyBonus(context.Background(), m.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				granted++
			case errors.Is(err, ErrAlreadyClaimed):
				denied++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
	assert.Equal(t, workers-1, denied)
	assert.Equal(t, int64(10_000), reload(t, db, m.ID).PointsBase)

	var count int64
	require.NoError(t, db.Model(&models.UserBonus{}).Where("user_id = ?", m.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListCreditsPaginatesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	m := createMember(t, db, models.User{
		ContractStartDate: datePtr("2026-10-01"),
		LastAccrualDate:   datePtr("2026-10-01"),
		DailyPointsRate:   10,
	})
	for d := 2; d <= 6; d++ {
		svc := newTestService(t, db, time.Date(2026, time.October, d, 12, 0, 0, 0, time.UTC))
		_, err := svc.Accrue(context.Background(), m.ID)
		require.NoError(t, err)
	}

	svc := newTestService(t, db, fixedNow)
	items, total, err := svc.ListCredits(context.Background(), m.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, "2026-10-06", storedDate(items[0].CreditDate).Format(dateLayout))
	assert.Equal(t, "2026-10-05", storedDate(items[1].CreditDate).Format(dateLayout))

	items, _, err = svc.ListCredits(context.Background(), m.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2026-10-02", storedDate(items[0].CreditDate).Format(dateLayout))
}

func TestListBonuses(t *testing.T) {
	db := newTestDB(t)
	m := createMember(t, db, models.User{})
	for _, now := range []time.Time{
		time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.September, 3, 0, 0, 0, 0, time.UTC),
	} {
		_, err := newTestService(t, db, now).ClaimMonthlyBonus(context.Background(), m.ID)
		require.NoError(t, err)
	}

	items, total, err := newTestService(t, db, fixedNow).ListBonuses(context.Background(), m.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "MONTH-2026-09", items[0].Code)
	assert.Equal(t, "MONTH-2026-08", items[1].Code)
}

func TestMilestoneLabel(t *testing.T) {
	assert.Equal(t, "3 months", milestoneLabel(0.25))
	assert.Equal(t, "6 months", milestoneLabel(0.5))
	assert.Equal(t, "9 months", milestoneLabel(0.75))
	assert.Equal(t, "12 months completed", milestoneLabel(1))
}
