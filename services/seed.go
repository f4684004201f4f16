package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/estagioplus/benefits/models"
	"github.com/estagioplus/benefits/utils"
)

const (
	DemoEmail    = "demo@estagioplus.com"
	DemoPassword = "123456"
)

var demoCategories = []models.Item{
	{ID: 1, Title: "Education and Development", Image: "educacao.svg"},
	{ID: 2, Title: "Health and Wellness", Image: "saude.svg"},
	{ID: 3, Title: "Culture and Leisure", Image: "cultura.svg"},
	{ID: 4, Title: "Shopping and Savings", Image: "economia.svg"},
	{ID: 5, Title: "Other", Image: "outros.svg"},
}

// SeedDemo inserts the demo catalog and member when they are missing. It is safe to
// run repeatedly.
func SeedDemo(ctx context.Context, db *gorm.DB, dailyRate int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Item{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := seedCatalog(tx); err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
		}

		var existing models.User
		err := tx.Where("email = ?", DemoEmail).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		hash, err := utils.HashPassword(DemoPassword)
		if err != nil {
			return err
		}
		return tx.Create(&models.User{
			Name:            "Demo Member",
			Email:           DemoEmail,
			PasswordHash:    hash,
			DailyPointsRate: dailyRate,
		}).Error
	})
}

func seedCatalog(tx *gorm.DB) error {
	if err := tx.Create(&demoCategories).Error; err != nil {
		return err
	}

	points := []models.Point{
		{
			Image:     "https://images.unsplash.com/photo-1501523460185-2aa5d2a0f981?w=400",
			Name:      "Faculdade Uniateneu",
			Email:     "contato@uniateneu.br",
			Whatsapp:  "+5585999990000",
			Latitude:  -4.1713,
			Longitude: -38.4636,
			City:      "Pacajus",
			UF:        "CE",
		},
		{
			Image:     "https://images.unsplash.com/photo-1542744173-05336fcc7ad4?w=400",
			Name:      "Cartao de Todos",
			Email:     "contato@cartaodetodos.com",
			Whatsapp:  "+5585988880000",
			Latitude:  -4.1718,
			Longitude: -38.4610,
			City:      "Pacajus",
			UF:        "CE",
		},
	}
	if err := tx.Create(&points).Error; err != nil {
		return err
	}
	links := []models.PointItem{
		{PointID: points[0].ID, ItemID: 1},
		{PointID: points[1].ID, ItemID: 2},
		{PointID: points[1].ID, ItemID: 4},
	}
	if err := tx.Create(&links).Error; err != nil {
		return err
	}

	education := uint(1)
	health := uint(2)
	online := []models.OnlineBenefit{
		{
			Title:             "IGT short courses",
			PartnerName:       "IGT",
			CategoryID:        &education,
			Details:           "Discounted online short courses.",
			DiscountLabel:     "30% off",
			Website:           "https://igt.example.com",
			AvailabilityScope: models.ScopeNational,
		},
		{
			Title:             "Online psychological care",
			PartnerName:       "Eliene Duarte",
			CategoryID:        &health,
			DiscountLabel:     "First session free",
			Phone:             "+5585977770000",
			AvailabilityScope: models.ScopeState,
			States:            "CE,RN",
		},
	}
	return tx.Create(&online).Error
}
