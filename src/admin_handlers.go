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

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/admin/users", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var users []models.User
			if err := gdb.
				Model(&models.User{}).
				Scopes(scopes.Paginate(1, 100)).
				Order("id asc").
				Find(&users).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			out := make([]types.APIResponseUser, 0, len(users))
			for _, u := range users {
				out = append(out, types.APIResponseUser{
					ID:    u.ID,
					Name:  u.Name,
					Email: u.Email,
					Role:  string(u.Role),
				})
			}
			ctx.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
		}).
		PATCH("/admin/users/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.AdminUpdateUserRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			updates := map[string]any{}
			if body.Role != nil {
				role := types.UserRole(*body.Role)
				if !role.Valid() {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid account role"})
					return
				}
				updates["role"] = role
			}
			if body.Suspended != nil {
				updates["suspended"] = *body.Suspended
			}
			if len(updates) == 0 {
				ctx.Status(http.StatusOK)
				return
			}
			gdb := db.GetDb()
			err := gdb.Transaction(func(tx *gorm.DB) error {
				res := tx.
					Model(&models.User{}).
					Where("id = ?", params.ID).
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
				log.Printf("Error updating user [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		PUT("/admin/accommodations/:id/suspend", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			err := gdb.Transaction(func(tx *gorm.DB) error {
				res := tx.
					Model(&models.Accommodation{}).
					Where("id = ?", params.ID).
					Update("status", types.LISTING_SUSPENDED)
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
		}).
		GET("/admin/payments", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var payments []models.Payment
			q := gdb.
				Model(&models.Payment{}).
				Order("created_at desc").
				Limit(100)
			if status := ctx.Query("status"); status != "" {
				q = q.Where("status = ?", status)
			}
			if err := q.Find(&payments).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		})
	return g
}
