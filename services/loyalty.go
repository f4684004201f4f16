package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estagioplus/benefits/config"
	"github.com/estagioplus/benefits/models"
	"github.com/estagioplus/benefits/utils"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrAlreadyClaimed = errors.New("monthly bonus already claimed")
	ErrStorage        = errors.New("storage failure")
)

// errCreditRace marks a lost race on the (user_id, credit_date) ledger key.
var errCreditRace = errors.New("accrual already credited today")

// Settings are the program constants the engine runs with.
type Settings struct {
	DefaultDailyRate   int
	GoalPoints         int64
	MonthlyBonusPoints int
	Location           *time.Location
}

// SettingsFromConfig reads the loyalty section of the app configuration.
func SettingsFromConfig(cfg config.AppConfig) Settings {
	return Settings{
		DefaultDailyRate:   cfg.DailyPointsRate,
		GoalPoints:         int64(cfg.GoalPoints),
		MonthlyBonusPoints: cfg.MonthlyBonusPoints,
		Location:           cfg.Location(),
	}
}

// Milestone is a progress marker; Reached is derived at read time.
type Milestone struct {
	Pct     float64 `json:"pct"`
	Label   string  `json:"label"`
	Reached bool    `json:"reached"`
}

// Quarterly markers over a twelve-month contract.
var milestoneThresholds = []float64{0.25, 0.5, 0.75, 1}

func milestoneLabel(pct float64) string {
	if pct == 1 {
		return "12 months completed"
	}
	return fmt.Sprintf("%d months", int(math.Round(pct*12)))
}

// ProgressView is the read model behind the progress ring.
type ProgressView struct {
	Meta                int64       `json:"meta"`
	Points              int64       `json:"points"`
	Percent             float64     `json:"percent"`
	DailyRate           int         `json:"daily_rate"`
	Milestones          []Milestone `json:"milestones"`
	MonthCode           string      `json:"month_code"`
	MonthBonusAvailable bool        `json:"month_bonus_available"`
	ContractStartDate   *string     `json:"contract_start_date"`
	ContractEndDate     *string     `json:"contract_end_date"`
	LastAccrualDate     *string     `json:"last_accrual_date"`
}

// AccrualResult reports how many days one accrual call credited.
type AccrualResult struct {
	CreditedDays   int   `json:"credited_days"`
	CreditedPoints int64 `json:"credited_points"`
}

// BonusClaimResult is the bonus granted by a successful monthly claim.
type BonusClaimResult struct {
	Code   string `json:"code"`
	Points int    `json:"points"`
}

// LoyaltyService runs daily accrual, progress and the monthly bonus gate for one member
// at a time. Every operation takes the member id explicitly.
type LoyaltyService struct {
	db       *gorm.DB
	settings Settings
	now      func() time.Time
	log      *zap.Logger
}

// NewLoyaltyService creates a service backed by db.
func NewLoyaltyService(db *gorm.DB, settings Settings, logger *zap.Logger) *LoyaltyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}
	return &LoyaltyService{db: db, settings: settings, now: time.Now, log: logger}
}

// WithClock replaces the time source.
func (s *LoyaltyService) WithClock(now func() time.Time) *LoyaltyService {
	s.now = now
	return s
}

// Accrue credits daily_points_rate for every whole day since the last accrual. The
// member row is locked for the read-modify-write and each credit is written to the
// accrual ledger, whose (user_id, credit_date) key rejects a second credit on the same day.
func (s *LoyaltyService) Accrue(ctx context.Context, memberID uint) (AccrualResult, error) {
	today := CalendarDate(s.now(), s.settings.Location)
	var result AccrualResult
	outcome := "noop"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, memberID).Error; err != nil {
			return err
		}

		start := today
		if member.ContractStartDate != nil {
			start = storedDate(*member.ContractStartDate)
		}
		last := start
		if member.LastAccrualDate != nil {
			last = storedDate(*member.LastAccrualDate)
		}
		// A contract starting in the future yields a negative span; never reverse the balance.
		elapsed := DaysBetween(last, today)
		if elapsed < 0 {
			elapsed = 0
		}

		updates := map[string]interface{}{}
		if member.ContractStartDate == nil {
			updates["contract_start_date"] = start
		}
		if member.LastAccrualDate == nil {
			updates["last_accrual_date"] = last
			outcome = "baseline"
		}

		if elapsed > 0 {
			rate := member.DailyPointsRate
			if rate <= 0 {
				rate = s.settings.DefaultDailyRate
			}
			points := int64(elapsed) * int64(rate)
			credit := models.AccrualCredit{
				UserID:     member.ID,
				CreditDate: today,
				Days:       elapsed,
				Points:     points,
			}
			if err := tx.Create(&credit).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errCreditRace
				}
				return err
			}
			updates["points_base"] = gorm.Expr("points_base + ?", points)
			updates["last_accrual_date"] = today
			result = AccrualResult{CreditedDays: elapsed, CreditedPoints: points}
			outcome = "credited"
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&member).Updates(updates).Error
	})

	switch {
	case err == nil:
	case errors.Is(err, errCreditRace):
		outcome = "race"
		result = AccrualResult{}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return AccrualResult{}, ErrMemberNotFound
	default:
		return AccrualResult{}, fmt.Errorf("%w: accrue member %d: %w", ErrStorage, memberID, err)
	}

	utils.AccrualRuns.WithLabelValues(outcome).Inc()
	if result.CreditedDays > 0 {
		utils.AccruedDays.Add(float64(result.CreditedDays))
		s.log.Info("accrual credited",
			zap.Uint("member_id", memberID),
			zap.Int("days", result.CreditedDays),
			zap.Int64("points", result.CreditedPoints),
			zap.String("date", today.Format(dateLayout)),
		)
	}
	return result, nil
}

// Progress derives the completion ratio, milestones and monthly bonus availability.
// It never mutates state.
func (s *LoyaltyService) Progress(ctx context.Context, memberID uint) (*ProgressView, error) {
	db := s.db.WithContext(ctx)

	var member models.User
	if err := db.First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("%w: load member %d: %w", ErrStorage, memberID, err)
	}

	code := MonthCode(s.now(), s.settings.Location)
	claimed, err := s.hasClaim(db, memberID, code)
	if err != nil {
		return nil, fmt.Errorf("%w: check bonus %s: %w", ErrStorage, code, err)
	}

	percent := completion(member.PointsBase, s.settings.GoalPoints)
	milestones := make([]Milestone, 0, len(milestoneThresholds))
	for _, pct := range milestoneThresholds {
		milestones = append(milestones, Milestone{
			Pct:     pct,
			Label:   milestoneLabel(pct),
			Reached: percent >= pct,
		})
	}

	rate := member.DailyPointsRate
	if rate <= 0 {
		rate = s.settings.DefaultDailyRate
	}

	return &ProgressView{
		Meta:                s.settings.GoalPoints,
		Points:              member.PointsBase,
		Percent:             percent,
		DailyRate:           rate,
		Milestones:          milestones,
		MonthCode:           code,
		MonthBonusAvailable: !claimed,
		ContractStartDate:   formatDate(member.ContractStartDate),
		ContractEndDate:     formatDate(member.ContractEndDate),
		LastAccrualDate:     formatDate(member.LastAccrualDate),
	}, nil
}

// completion is points/meta clamped to [0, 1].
func completion(points, meta int64) float64 {
	if meta <= 0 || points >= meta {
		return 1
	}
	if points <= 0 {
		return 0
	}
	return float64(points) / float64(meta)
}

// ClaimMonthlyBonus grants the fixed monthly bonus once per member and month. The
// existence check is only a fast path; the unique (user_id, code) index decides.
// It does not run accrual first.
func (s *LoyaltyService) ClaimMonthlyBonus(ctx context.Context, memberID uint) (*BonusClaimResult, error) {
	code := MonthCode(s.now(), s.settings.Location)
	bonus := s.settings.MonthlyBonusPoints

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, memberID).Error; err != nil {
			return err
		}

		claimed, err := s.hasClaim(tx, memberID, code)
		if err != nil {
			return err
		}
		if claimed {
			return ErrAlreadyClaimed
		}

		record := models.UserBonus{UserID: memberID, Code: code, Points: bonus}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyClaimed
			}
			return err
		}

		return tx.Model(&member).Update("points_base", gorm.Expr("points_base + ?", bonus)).Error
	})

	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyClaimed):
		utils.BonusClaims.WithLabelValues("already_claimed").Inc()
		return nil, ErrAlreadyClaimed
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrMemberNotFound
	default:
		return nil, fmt.Errorf("%w: claim %s for member %d: %w", ErrStorage, code, memberID, err)
	}

	utils.BonusClaims.WithLabelValues("granted").Inc()
	s.log.Info("monthly bonus granted",
		zap.Uint("member_id", memberID),
		zap.String("code", code),
		zap.Int("points", bonus),
	)
	return &BonusClaimResult{Code: code, Points: bonus}, nil
}

func (s *LoyaltyService) hasClaim(db *gorm.DB, memberID uint, code string) (bool, error) {
	var count int64
	err := db.Model(&models.UserBonus{}).
		Where("user_id = ? AND code = ?", memberID, code).
		Count(&count).Error
	return count > 0, err
}

// ListBonuses returns the member's bonus claims, newest first.
func (s *LoyaltyService) ListBonuses(ctx context.Context, memberID uint, page, pageSize int) ([]models.UserBonus, int64, error) {
	var items []models.UserBonus
	total, err := s.paginate(ctx, &models.UserBonus{}, &items, memberID, page, pageSize)
	return items, total, err
}

// ListCredits returns the member's accrual ledger, newest first.
func (s *LoyaltyService) ListCredits(ctx context.Context, memberID uint, page, pageSize int) ([]models.AccrualCredit, int64, error) {
	var items []models.AccrualCredit
	total, err := s.paginate(ctx, &models.AccrualCredit{}, &items, memberID, page, pageSize)
	return items, total, err
}

func (s *LoyaltyService) paginate(ctx context.Context, model, dest interface{}, memberID uint, page, pageSize int) (int64, error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(model).Where("user_id = ?", memberID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("%w: count history: %w", ErrStorage, err)
	}
	if err := db.Where("user_id = ?", memberID).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(dest).Error; err != nil {
		return 0, fmt.Errorf("%w: list history: %w", ErrStorage, err)
	}
	return total, nil
}
