package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estagioplus/benefits/models"
	"github.com/estagioplus/benefits/utils"
)

const (
	catalogCachePrefix = "cache:catalog:"
	physicalIDPrefix   = "phy-"
	onlineIDPrefix     = "onl-"
)

// CatalogController serves benefit categories and the physical/online benefit catalog.
type CatalogController struct {
	db *gorm.DB
}

// NewCatalogController creates a new CatalogController instance.
func NewCatalogController(db *gorm.DB) *CatalogController {
	return &CatalogController{db: db}
}

// CategoryView is one benefit category.
type CategoryView struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

type BenefitContact struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

type BenefitLocation struct {
	ID        string  `json:"id"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BenefitView is the common shape of physical and online benefits.
type BenefitView struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	PartnerName       string            `json:"partner_name"`
	CategoryID        *uint             `json:"category_id"`
	Details           string            `json:"details,omitempty"`
	DiscountLabel     string            `json:"discount_label,omitempty"`
	LogoURL           string            `json:"logo_url,omitempty"`
	ImageURL          string            `json:"image_url,omitempty"`
	Contact           BenefitContact    `json:"contact"`
	IsOnline          bool              `json:"is_online"`
	AvailabilityScope string            `json:"availability_scope"`
	Locations         []BenefitLocation `json:"locations"`
	DistanceKm        *float64          `json:"distance_km,omitempty"`
}

// pointRow is a point joined with one of its categories.
type pointRow struct {
	models.Point
	CategoryID *uint
}

// Categories lists the benefit categories.
func (c *CatalogController) Categories(ctx *gin.Context) {
	origin := baseURL(ctx)
	cacheKey := catalogCachePrefix + "categories:" + origin

	var cats []CategoryView
	if utils.CacheGetJSON(ctx.Request.Context(), cacheKey, &cats) {
		utils.Success(ctx, cats)
		return
	}

	var items []models.Item
	if err := c.db.WithContext(ctx.Request.Context()).Order("id").Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load categories")
		return
	}

	cats = make([]CategoryView, 0, len(items))
	for _, it := range items {
		cats = append(cats, CategoryView{ID: it.ID, Label: it.Title, Icon: uploadURL(origin, it.Image)})
	}
	utils.CacheSetJSON(ctx.Request.Context(), cacheKey, cats, 10*time.Minute)
	utils.Success(ctx, cats)
}

// Benefits lists physical and online benefits available for a state/city.
// Query: state, city, categoryId, onlyOnline, onlyPhysical, lat, lng.
func (c *CatalogController) Benefits(ctx *gin.Context) {
	state := strings.TrimSpace(ctx.Query("state"))
	city := strings.TrimSpace(ctx.Query("city"))
	categoryID, _ := strconv.ParseUint(ctx.Query("categoryId"), 10, 64)
	onlyOnline := strings.EqualFold(ctx.Query("onlyOnline"), "true")
	onlyPhysical := strings.EqualFold(ctx.Query("onlyPhysical"), "true")
	lat, latErr := strconv.ParseFloat(ctx.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(ctx.Query("lng"), 64)
	hasOrigin := latErr == nil && lngErr == nil

	origin := baseURL(ctx)
	db := c.db.WithContext(ctx.Request.Context())
	out := []BenefitView{}

	if !onlyOnline {
		q := db.Table("points").
			Select("points.*, point_items.item_id AS category_id").
			Joins("JOIN point_items ON point_items.point_id = points.id")
		if city != "" {
			q = q.Where("points.city = ?", city)
		}
		if state != "" {
			q = q.Where("points.uf = ?", state)
		}
		if categoryID > 0 {
			q = q.Where("point_items.item_id = ?", categoryID)
		}

		var rows []pointRow
		if err := q.Order("points.id, point_items.item_id").Scan(&rows).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to load benefits")
			return
		}

		physical := make([]BenefitView, 0, len(rows))
		seen := map[uint]bool{}
		for _, row := range rows {
			if seen[row.ID] {
				continue
			}
			seen[row.ID] = true
			view := mapPointToBenefit(origin, row)
			if hasOrigin {
				d := utils.HaversineKm(lat, lng, row.Latitude, row.Longitude)
				view.DistanceKm = &d
			}
			physical = append(physical, view)
		}
		if hasOrigin {
			sort.SliceStable(physical, func(i, j int) bool {
				return *physical[i].DistanceKm < *physical[j].DistanceKm
			})
		}
		out = append(out, physical...)
	}

	if !onlyPhysical {
		q := db.Model(&models.OnlineBenefit{})
		if categoryID > 0 {
			q = q.Where("category_id = ?", categoryID)
		}
		var rows []models.OnlineBenefit
		if err := q.Order("id").Find(&rows).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load online benefits")
			return
		}
		for _, r := range rows {
			if !onlineIsAvailable(r, state, city) {
				continue
			}
			out = append(out, mapOnlineToBenefit(origin, r))
		}
	}

	utils.Success(ctx, out)
}

// BenefitByID returns one benefit by its phy-<id> or onl-<id> identifier.
func (c *CatalogController) BenefitByID(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	origin := baseURL(ctx)
	db := c.db.WithContext(ctx.Request.Context())

	switch {
	case strings.HasPrefix(id, physicalIDPrefix):
		rawID, err := strconv.ParseUint(strings.TrimPrefix(id, physicalIDPrefix), 10, 64)
		if err != nil || rawID == 0 {
			utils.Error(ctx, http.StatusBadRequest, 40061, "invalid physical benefit id")
			return
		}
		var rows []pointRow
		if err := db.Table("points").
			Select("points.*, point_items.item_id AS category_id").
			Joins("LEFT JOIN point_items ON point_items.point_id = points.id").
			Where("points.id = ?", rawID).
			Order("point_items.item_id").
			Limit(1).
			Scan(&rows).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to load benefit")
			return
		}
		if len(rows) == 0 {
			utils.Error(ctx, http.StatusNotFound, 40460, "physical benefit not found")
			return
		}
		utils.Success(ctx, mapPointToBenefit(origin, rows[0]))

	case strings.HasPrefix(id, onlineIDPrefix):
		rawID, err := strconv.ParseUint(strings.TrimPrefix(id, onlineIDPrefix), 10, 64)
		if err != nil || rawID == 0 {
			utils.Error(ctx, http.StatusBadRequest, 40062, "invalid online benefit id")
			return
		}
		var row models.OnlineBenefit
		if err := db.First(&row, rawID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(ctx, http.StatusNotFound, 40461, "online benefit not found")
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to load benefit")
			return
		}
		utils.Success(ctx, mapOnlineToBenefit(origin, row))

	default:
		utils.Error(ctx, http.StatusBadRequest, 40060, "unknown benefit id format")
	}
}

// onlineIsAvailable applies the availability scope of an online benefit to a state/city.
func onlineIsAvailable(b models.OnlineBenefit, state, city string) bool {
	scope := strings.ToUpper(strings.TrimSpace(b.AvailabilityScope))
	switch scope {
	case "", models.ScopeNational:
		return true
	case models.ScopeState:
		if state == "" {
			return false
		}
		return containsFold(splitCSV(b.States), state)
	case models.ScopeCity:
		if state == "" || city == "" {
			return false
		}
		return containsFold(splitCSV(b.Cities), city+":"+state)
	default:
		return false
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func containsFold(list []string, target string) bool {
	for _, s := range list {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}

func mapPointToBenefit(origin string, p pointRow) BenefitView {
	logo := p.Image
	if i := strings.LastIndex(logo, "/"); i >= 0 {
		logo = logo[i+1:]
	}
	return BenefitView{
		ID:                physicalIDPrefix + strconv.FormatUint(uint64(p.ID), 10),
		Title:             p.Name,
		PartnerName:       p.Name,
		CategoryID:        p.CategoryID,
		LogoURL:           uploadURL(origin, logo),
		ImageURL:          uploadURL(origin, p.Image),
		Contact:           BenefitContact{Phone: p.Whatsapp},
		IsOnline:          false,
		AvailabilityScope: models.ScopeCity,
		Locations: []BenefitLocation{{
			ID:        "loc-" + strconv.FormatUint(uint64(p.ID), 10),
			Address:   p.City,
			City:      p.City,
			State:     p.UF,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		}},
	}
}

func mapOnlineToBenefit(origin string, r models.OnlineBenefit) BenefitView {
	scope := r.AvailabilityScope
	if scope == "" {
		scope = models.ScopeNational
	}
	return BenefitView{
		ID:                onlineIDPrefix + strconv.FormatUint(uint64(r.ID), 10),
		Title:             r.Title,
		PartnerName:       r.PartnerName,
		CategoryID:        r.CategoryID,
		Details:           utils.Sanitize(r.Details),
		DiscountLabel:     r.DiscountLabel,
		LogoURL:           uploadURL(origin, r.Logo),
		ImageURL:          uploadURL(origin, r.Image),
		Contact:           BenefitContact{Phone: r.Phone, Website: r.Website},
		IsOnline:          true,
		AvailabilityScope: scope,
		Locations:         []BenefitLocation{},
	}
}
