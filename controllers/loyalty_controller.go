package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/estagioplus/benefits/services"
	"github.com/estagioplus/benefits/utils"
)

// LoyaltyController exposes daily accrual, progress and the monthly bonus.
type LoyaltyController struct {
	svc *services.LoyaltyService
}

// NewLoyaltyController creates a new controller instance.
func NewLoyaltyController(svc *services.LoyaltyService) *LoyaltyController {
	return &LoyaltyController{svc: svc}
}

// Accrue credits the member's pending daily points. Safe to call on every screen load.
func (l *LoyaltyController) Accrue(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res, err := l.svc.Accrue(ctx.Request.Context(), userID)
	if err != nil {
		l.fail(ctx, userID, "accrue", err)
		return
	}

	utils.Success(ctx, gin.H{
		"ok":            true,
		"credited_days": res.CreditedDays,
	})
}

// Progress returns the progress ring data.
func (l *LoyaltyController) Progress(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	view, err := l.svc.Progress(ctx.Request.Context(), userID)
	if err != nil {
		l.fail(ctx, userID, "progress", err)
		return
	}
	utils.Success(ctx, view)
}

// ClaimMonth grants this month's bonus once.
func (l *LoyaltyController) ClaimMonth(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res, err := l.svc.ClaimMonthlyBonus(ctx.Request.Context(), userID)
	if err != nil {
		l.fail(ctx, userID, "claim-month", err)
		return
	}

	utils.Success(ctx, gin.H{
		"ok":     true,
		"code":   res.Code,
		"points": res.Points,
	})
}

// ListBonuses returns the member's claimed bonuses.
func (l *LoyaltyController) ListBonuses(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	items, total, err := l.svc.ListBonuses(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		l.fail(ctx, userID, "list-bonuses", err)
		return
	}
	utils.Success(ctx, gin.H{"items": items, "pagination": paginationMeta(page, pageSize, total)})
}

// ListCredits returns the member's daily accrual ledger.
func (l *LoyaltyController) ListCredits(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	items, total, err := l.svc.ListCredits(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		l.fail(ctx, userID, "list-credits", err)
		return
	}
	utils.Success(ctx, gin.H{"items": items, "pagination": paginationMeta(page, pageSize, total)})
}

func (l *LoyaltyController) fail(ctx *gin.Context, userID uint, op string, err error) {
	switch {
	case errors.Is(err, services.ErrMemberNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "member not found")
	case errors.Is(err, services.ErrAlreadyClaimed):
		utils.Error(ctx, http.StatusBadRequest, 40040, "monthly bonus already claimed")
	default:
		utils.Logger.Error("loyalty operation failed",
			zap.String("op", op),
			zap.Uint("member_id", userID),
			zap.String("request_id", ctx.GetString(utils.RequestIDKey)),
			zap.Error(err),
		)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "loyalty operation failed")
	}
}
