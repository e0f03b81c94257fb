package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"tms/src/db"
	"tms/src/lib"
	"tms/src/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccountsGetOwnProfile serves the profile from the redis cache when warm
// and falls back to the database.
func AccountsGetOwnProfile(ctx *gin.Context) (*models.User, int, error) {
	userId := ctx.GetUint("id")
	rd := lib.GetRedisClient()
	if rd != nil {
		val := rd.JSONGet(context.Background(), fmt.Sprintf("%d:user", userId)).Val()
		if val != "" {
			var cached []models.User
			if err := json.Unmarshal([]byte(val), &cached); err == nil && len(cached) > 0 {
				return &cached[0], http.StatusOK, nil
			}
		}
	}
	var user models.User
	db := db.GetDb()
	if err := db.
		Preload("Accommodations").
		Where(&models.User{ID: userId}).
		First(&user).
		Error; err != nil {
		return nil, http.StatusNotFound, err
	}
	return &user, http.StatusOK, nil
}

func AccountsUpdateProfile(ctx *gin.Context) (int, error) {
	userId := ctx.GetUint("id")
	var body struct {
		Name  *string `json:"name,omitempty"`
		About *string `json:"about,omitempty"`
		Phone *string `json:"phone,omitempty"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = *body.Name
	}
	if body.About != nil {
		updates["about"] = *body.About
	}
	if body.Phone != nil {
		updates["phone"] = *body.Phone
	}
	if len(updates) == 0 {
		return http.StatusOK, nil
	}
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.User{}).
			Where("id = ?", userId).
			Updates(updates).
			Error
	})
	if err != nil {
		log.Printf("Error updating user [%d]: %s\n", userId, err.Error())
		return http.StatusBadRequest, err
	}
	rd := lib.GetRedisClient()
	if rd != nil {
		rd.Del(context.Background(), fmt.Sprintf("%d:user", userId))
	}
	return http.StatusOK, nil
}
