package main

import (
	"errors"
	"log"
	"net/http"
	"tms/src/db"
	"tms/src/models"
	"tms/src/models/scopes"
	"tms/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func guidePublicHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/guides", func(ctx *gin.Context) {
			city := ctx.Query("city")
			gdb := db.GetDb()
			var guides []models.GuideProfile
			q := gdb.
				Model(&models.GuideProfile{}).
				Where("status = ?", types.LISTING_ACTIVE).
				Scopes(scopes.Paginate(1, 50)).
				Order("created_at desc")
			if city != "" {
				q = q.Where("city ILIKE ?", "%"+city+"%")
			}
			if err := q.Preload("User").Find(&guides).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": guides, "count": len(guides)})
		}).
		GET("/guides/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var guide models.GuideProfile
			if err := gdb.
				Preload("User").
				Where("id = ?", params.ID).
				First(&guide).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": guide})
		})
	return g
}

func guideHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/guides", func(ctx *gin.Context) {
			var body types.CreateGuideProfileRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			profile := models.GuideProfile{
				UserID:   userId,
				Headline: body.Headline,
				City:     body.City,
				DayRate:  body.DayRate,
				Currency: body.Currency,
				Status:   types.LISTING_ACTIVE,
			}
			if body.About != "" {
				profile.About = &body.About
			}
			err := gdb.Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.
					Model(&models.GuideProfile{}).
					Where("user_id = ?", userId).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count > 0 {
					return errors.New("guide profile already exists")
				}
				return tx.Create(&profile).Error
			})
			if err != nil {
				log.Printf("Error creating guide profile: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": profile})
		}).
		PATCH("/guides/own", func(ctx *gin.Context) {
			var body struct {
				Headline *string              `json:"headline,omitempty"`
				City     *string              `json:"city,omitempty"`
				About    *string              `json:"about,omitempty"`
				DayRate  *int64               `json:"day_rate,omitempty" binding:"omitempty,gt=0"`
				Status   *types.ListingStatus `json:"status,omitempty"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			updates := map[string]any{}
			if body.Headline != nil {
				updates["headline"] = *body.Headline
			}
			if body.City != nil {
				updates["city"] = *body.City
			}
			if body.About != nil {
				updates["about"] = *body.About
			}
			if body.DayRate != nil {
				updates["day_rate"] = *body.DayRate
			}
			if body.Status != nil {
				if *body.Status != types.LISTING_ACTIVE && *body.Status != types.LISTING_ARCHIVED {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing status"})
					return
				}
				updates["status"] = *body.Status
			}
			if len(updates) == 0 {
				ctx.Status(http.StatusOK)
				return
			}
			gdb := db.GetDb()
			err := gdb.Transaction(func(tx *gorm.DB) error {
				res := tx.
					Model(&models.GuideProfile{}).
					Where("user_id = ?", userId).
					Updates(updates)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return gorm.ErrRecordNotFound
				}
				return nil
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
