package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
	"tms/src/db"
	"tms/src/lib"
	"tms/src/models"
	"tms/src/types"
	"tms/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

func AuthRegister(ctx *gin.Context) (id *uint, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	role := types.ROLE_TOURIST
	if body.Role != "" {
		role = types.UserRole(body.Role)
		if !role.Valid() || role == types.ROLE_ADMIN {
			return nil, http.StatusBadRequest, errors.New("invalid account role")
		}
	}
	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		log.Printf("Error hashing password: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}

	db := db.GetDb()
	var count int64
	if err := db.
		Model(&models.User{}).
		Where("email = ?", body.Email).
		Count(&count).
		Error; err != nil {
		return nil, http.StatusBadRequest, err
	}
	if count > 0 {
		return nil, http.StatusConflict, errors.New("an account with that email already exists")
	}

	user := models.User{
		Name:     body.Name,
		Email:    body.Email,
		Password: hash,
		Role:     role,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		sc := lib.GetStripeClient()
		cus, err := sc.V1Customers.Create(context.Background(), &stripe.CustomerCreateParams{
			Name:  stripe.String(user.Name),
			Email: stripe.String(user.Email),
		})
		if err != nil {
			log.Printf("Error creating Stripe customer: %s\n", err.Error())
			return err
		}
		return tx.
			Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("stripe_customer_id", cus.ID).
			Error
	})
	if err != nil {
		log.Printf("Error registering user: %s\n", err.Error())
		return nil, http.StatusBadRequest, err
	}
	return &user.ID, http.StatusOK, nil
}

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	var user models.User
	if err = db.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&user).
		Error; err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if !utils.CheckPasswordHash(body.Password, user.Password) {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if user.Suspended {
		return nil, http.StatusForbidden, errors.New("account suspended")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.User{}).
			Where("id", user.ID).
			Update("last_active", time.Now()).
			Error
	})
	if err != nil {
		log.Printf("Error logging in user [%d]: %s\n", user.ID, err.Error())
		return nil, http.StatusBadRequest, err
	}

	jwt, err := utils.GenerateJWT(&user)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	rd := lib.GetRedisClient()
	if rd != nil {
		if _, err := rd.JSONSet(ctx, fmt.Sprintf("%d:user", user.ID), "$", &user).Result(); err != nil {
			log.Printf("[redis] Error updating user cache: %s\n", err.Error())
		}
	}

	return &jwt, http.StatusOK, nil
}
