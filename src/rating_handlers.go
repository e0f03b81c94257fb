package main

import (
	"errors"
	"log"
	"net/http"
	"tms/src/db"
	"tms/src/models"
	"tms/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ratingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/ratings", func(ctx *gin.Context) {
			var body types.CreateRatingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			var rating models.Rating
			err := gdb.Transaction(func(tx *gorm.DB) error {
				var booking models.Booking
				if err := tx.
					Where("id = ?", body.BookingID).
					First(&booking).
					Error; err != nil {
					return err
				}
				if booking.UserID != userId {
					return errors.New("only the booking requester may leave a rating")
				}
				if booking.Status != types.BOOKING_CONFIRMED {
					return errors.New("only confirmed bookings can be rated")
				}
				rating = models.Rating{
					BookingID:   booking.ID,
					AuthorID:    userId,
					SubjectType: booking.SubjectType,
					SubjectID:   booking.SubjectID,
					Score:       body.Score,
				}
				if body.Comment != "" {
					rating.Comment = &body.Comment
				}
				return tx.Create(&rating).Error
			})
			if err != nil {
				log.Printf("Error creating rating: %s\n", err.Error())
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": rating})
		}).
		GET("/ratings", func(ctx *gin.Context) {
			subjectType := ctx.Query("subject_type")
			subjectId := ctx.Query("subject_id")
			if !types.SubjectType(subjectType).Valid() || subjectId == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "subject_type and subject_id are required"})
				return
			}
			gdb := db.GetDb()
			var ratings []models.Rating
			if err := gdb.
				Where("subject_type = ? AND subject_id = ?", subjectType, subjectId).
				Order("created_at desc").
				Limit(100).
				Find(&ratings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var sum int64
			for _, r := range ratings {
				sum += int64(r.Score)
			}
			var average float64
			if len(ratings) > 0 {
				average = float64(sum) / float64(len(ratings))
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ratings, "count": len(ratings), "average": average})
		})
	return g
}
