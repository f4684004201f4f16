package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estagioplus/benefits/models"
	"github.com/estagioplus/benefits/utils"
)

// defaultPointImage is used when the admin form does not send an image.
const defaultPointImage = "https://images.unsplash.com/photo-1542838132-92c53300491e?auto=format&fit=crop&w=400&q=60"

// PointsController serves the collection-point endpoints used by the web admin form.
type PointsController struct {
	db *gorm.DB
}

// NewPointsController creates a PointsController.
func NewPointsController(db *gorm.DB) *PointsController {
	return &PointsController{db: db}
}

// ListItems lists categories with their image URL.
func (p *PointsController) ListItems(ctx *gin.Context) {
	var items []models.Item
	if err := p.db.WithContext(ctx.Request.Context()).Order("id").Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load items")
		return
	}

	origin := baseURL(ctx)
	out := make([]gin.H, 0, len(items))
	for _, it := range items {
		out = append(out, gin.H{
			"id":        it.ID,
			"title":     it.Title,
			"image_url": uploadURL(origin, it.Image),
		})
	}
	utils.Success(ctx, out)
}

// ListPoints filters points by city, uf and a comma separated list of item ids.
func (p *PointsController) ListPoints(ctx *gin.Context) {
	city := strings.TrimSpace(ctx.Query("city"))
	uf := strings.ToUpper(strings.TrimSpace(ctx.Query("uf")))
	itemIDs := parseIDList(ctx.Query("items"))

	if city == "" || uf == "" || len(itemIDs) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40070, "city, uf and items are required")
		return
	}

	var points []models.Point
	err := p.db.WithContext(ctx.Request.Context()).
		Model(&models.Point{}).
		Distinct("points.*").
		Joins("JOIN point_items ON point_items.point_id = points.id").
		Where("point_items.item_id IN ?", itemIDs).
		Where("points.city = ? AND points.uf = ?", city, uf).
		Order("points.id").
		Find(&points).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to load points")
		return
	}

	origin := baseURL(ctx)
	out := make([]gin.H, 0, len(points))
	for _, pt := range points {
		out = append(out, pointResponse(origin, pt))
	}
	utils.Success(ctx, out)
}

// ShowPoint returns a point with the titles of the items it serves.
func (p *PointsController) ShowPoint(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid point id")
		return
	}

	db := p.db.WithContext(ctx.Request.Context())
	var point models.Point
	if err := db.First(&point, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40470, "point not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to load point")
		return
	}

	var items []models.Item
	if err := db.Model(&models.Item{}).
		Joins("JOIN point_items ON point_items.item_id = items.id").
		Where("point_items.point_id = ?", point.ID).
		Order("items.id").
		Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to load point items")
		return
	}

	titles := make([]gin.H, 0, len(items))
	for _, it := range items {
		titles = append(titles, gin.H{"title": it.Title})
	}
	utils.Success(ctx, gin.H{
		"point": pointResponse(baseURL(ctx), point),
		"items": titles,
	})
}

// CreatePoint stores a new point and its item links in one transaction.
func (p *PointsController) CreatePoint(ctx *gin.Context) {
	type request struct {
		Name      string   `json:"name" binding:"required"`
		Email     string   `json:"email" binding:"required,email"`
		Whatsapp  string   `json:"whatsapp" binding:"required"`
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
		City      string   `json:"city" binding:"required"`
		UF        string   `json:"uf" binding:"required"`
		Image     string   `json:"image"`
		Items     []uint   `json:"items" binding:"required,min=1"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40072, "invalid point payload")
		return
	}

	point := models.Point{
		Image:     strings.TrimSpace(req.Image),
		Name:      utils.PlainText(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Whatsapp:  utils.PlainText(req.Whatsapp),
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		City:      utils.PlainText(req.City),
		UF:        strings.ToUpper(utils.PlainText(req.UF)),
	}
	if point.Image == "" {
		point.Image = defaultPointImage
	}
	itemIDs := utils.Unique(req.Items)
	if point.Name == "" || point.City == "" || len(point.UF) != 2 {
		utils.Error(ctx, http.StatusBadRequest, 40073, "name, city and a two letter uf are required")
		return
	}

	err := p.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&point).Error; err != nil {
			return err
		}
		links := make([]models.PointItem, 0, len(itemIDs))
		for _, itemID := range itemIDs {
			links = append(links, models.PointItem{PointID: point.ID, ItemID: itemID})
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		utils.Logger.Sugar().Errorf("create point failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50074, "failed to create point")
		return
	}

	utils.InvalidateByPrefix(ctx.Request.Context(), catalogCachePrefix)
	body := pointResponse(baseURL(ctx), point)
	body["items"] = itemIDs
	utils.Created(ctx, body)
}

func pointResponse(origin string, pt models.Point) gin.H {
	return gin.H{
		"id":        pt.ID,
		"image":     pt.Image,
		"image_url": uploadURL(origin, pt.Image),
		"name":      pt.Name,
		"email":     pt.Email,
		"whatsapp":  pt.Whatsapp,
		"latitude":  pt.Latitude,
		"longitude": pt.Longitude,
		"city":      pt.City,
		"uf":        pt.UF,
	}
}

func parseIDList(raw string) []uint {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err == nil && n > 0 {
			ids = append(ids, uint(n))
		}
	}
	return utils.Unique(ids)
}
