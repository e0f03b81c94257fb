package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
	"tms/src/db"
	"tms/src/lib"
	"tms/src/models"
	"tms/src/models/scopes"
	"tms/src/types"
	"tms/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func accommodationPublicHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/accommodations", func(ctx *gin.Context) {
			var filters types.AccommodationQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			cacheKey := fmt.Sprintf("accommodations:%s:%d:%d:%d:%d",
				filters.Location, filters.MinRate, filters.MaxRate, filters.Page, filters.Limit)
			rd := lib.GetRedisClient()
			if rd != nil {
				if val := rd.Get(context.Background(), cacheKey).Val(); val != "" {
					var cached []models.Accommodation
					if err := json.Unmarshal([]byte(val), &cached); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"data": cached, "count": len(cached)})
						return
					}
				}
			}

			gdb := db.GetDb()
			var listings []models.Accommodation
			q := gdb.
				Model(&models.Accommodation{}).
				Where("status = ?", types.LISTING_ACTIVE).
				Scopes(scopes.Paginate(filters.Page, filters.Limit)).
				Order("created_at desc")
			if filters.Location != "" {
				q = q.Where("location ILIKE ?", "%"+filters.Location+"%")
			}
			if filters.MinRate > 0 {
				q = q.Where("rate >= ?", filters.MinRate)
			}
			if filters.MaxRate > 0 {
				q = q.Where("rate <= ?", filters.MaxRate)
			}
			if err := q.Find(&listings).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}

			if rd != nil {
				if body, err := json.Marshal(listings); err == nil {
					rd.SetEx(context.Background(), cacheKey, string(body), 5*time.Minute)
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
		}).
		GET("/accommodations/:slug", func(ctx *gin.Context) {
			slug := ctx.Params.ByName("slug")
			gdb := db.GetDb()
			var listing models.Accommodation
			if err := gdb.
				Preload("Provider").
				Where(&models.Accommodation{Slug: slug}).
				First(&listing).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listing})
		})
	return g
}

func accommodationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/accommodations", func(ctx *gin.Context) {
			var body types.CreateAccommodationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			listing := models.Accommodation{
				ProviderID: userId,
				Name:       body.Name,
				Slug:       utils.MakeSlug(body.Name),
				Location:   body.Location,
				Rate:       body.Rate,
				Currency:   body.Currency,
				Status:     types.LISTING_ACTIVE,
			}
			if body.About != "" {
				listing.About = &body.About
			}
			gdb := db.GetDb()
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&listing).Error
			}); err != nil {
				log.Printf("Error creating accommodation: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": listing})
		}).
		GET("/accounts/accommodations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			var listings []models.Accommodation
			if err := gdb.
				Where(&models.Accommodation{ProviderID: userId}).
				Order("created_at desc").
				Find(&listings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
		}).
		PATCH("/accommodations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateAccommodationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			err := gdb.Transaction(func(tx *gorm.DB) error {
				var listing models.Accommodation
				if err := tx.
					Where("id = ? AND provider_id = ?", params.ID, userId).
					First(&listing).
					Error; err != nil {
					return err
				}
				updates := map[string]any{}
				if body.Name != nil {
					updates["name"] = *body.Name
				}
				if body.About != nil {
					updates["about"] = *body.About
				}
				if body.Location != nil {
					updates["location"] = *body.Location
				}
				if body.Rate != nil {
					updates["rate"] = *body.Rate
				}
				if len(updates) == 0 {
					return nil
				}
				return tx.
					Model(&models.Accommodation{}).
					Where("id = ?", listing.ID).
					Updates(updates).
					Error
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
		}).
		DELETE("/accommodations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			// archived, not deleted: history stays queryable
			err := gdb.Transaction(func(tx *gorm.DB) error {
				res := tx.
					Model(&models.Accommodation{}).
					Where("id = ? AND provider_id = ?", params.ID, userId).
					Update("status", types.LISTING_ARCHIVED)
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
