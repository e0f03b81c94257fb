package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"
	"tms/src/common"
	"tms/src/config"
	"tms/src/db"
	"tms/src/lib"
	awslib "tms/src/lib/aws"
	"tms/src/models"
	"tms/src/models/scopes"
	"tms/src/types"
	"tms/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

// statusForOrchestratorError maps the orchestrator's error taxonomy onto
// HTTP statuses. Retryable authority failures surface as 502 so a client
// knows the request may be retried as-is.
func statusForOrchestratorError(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidRange),
		errors.Is(err, common.ErrInvalidSubject):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrBookingNotFound),
		errors.Is(err, common.ErrPaymentNotFound),
		errors.Is(err, common.ErrHoldNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidState),
		errors.Is(err, common.ErrDuplicateIntent):
		return http.StatusConflict
	case common.IsRetryable(err):
		return http.StatusBadGateway
	}
	// anything unclassified is an internal failure, not the caller's fault
	return http.StatusInternalServerError
}

// stay length in whole units: nights for accommodations, days for guides
func bookingUnits(startsAt, endsAt time.Time) int64 {
	span := endsAt.Sub(startsAt)
	units := int64(span / (24 * time.Hour))
	if span%(24*time.Hour) > 0 {
		units++
	}
	if units < 1 {
		units = 1
	}
	return units
}

func quoteBookingPrice(subjectType types.SubjectType, subjectID uint, startsAt, endsAt time.Time) (int64, error) {
	gdb := db.GetDb()
	var rate int64
	switch subjectType {
	case types.SUBJECT_ACCOMMODATION:
		var acc models.Accommodation
		if err := gdb.Where("id = ?", subjectID).First(&acc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, common.ErrInvalidSubject
			}
			return 0, err
		}
		rate = acc.Rate
	case types.SUBJECT_GUIDE:
		var gp models.GuideProfile
		if err := gdb.Where("id = ?", subjectID).First(&gp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, common.ErrInvalidSubject
			}
			return 0, err
		}
		rate = gp.DayRate
	default:
		return 0, common.ErrInvalidSubject
	}
	return rate * bookingUnits(startsAt, endsAt), nil
}

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			subjectType := types.SubjectType(body.SubjectType)
			if !subjectType.Valid() {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown subject type"})
				return
			}
			startsAt, err := time.Parse(config.TIME_PARSE_FORMAT, body.StartsAt)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			endsAt, err := time.Parse(config.TIME_PARSE_FORMAT, body.EndsAt)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			price, err := quoteBookingPrice(subjectType, body.SubjectID, startsAt, endsAt)
			if err != nil {
				ctx.JSON(statusForOrchestratorError(err), gin.H{"error": err.Error()})
				return
			}
			booking, err := orchestrator.RequestBooking(ctx, userId, subjectType, body.SubjectID, startsAt, endsAt, price)
			if err != nil {
				log.Printf("Error creating booking: %s\n", err.Error())
				ctx.JSON(statusForOrchestratorError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		POST("/bookings/:id/intent", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			payment, err := orchestrator.CreatePaymentIntent(ctx, params.ID, userId)
			if err != nil {
				log.Printf("Error creating payment intent for booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(statusForOrchestratorError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": payment})
		}).
		PUT("/bookings/:id/confirm", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			booking, err := orchestrator.ConfirmBooking(ctx, params.ID, userId)
			if err != nil {
				log.Printf("Error confirming booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(statusForOrchestratorError(err), gin.H{"error": err.Error()})
				return
			}
			go func() {
				gdb := db.GetDb()
				var requester models.User
				if err := gdb.Where("id = ?", booking.UserID).First(&requester).Error; err != nil {
					return
				}
				if err := common.SendBookingConfirmedEmail(booking, &requester); err != nil {
					log.Printf("Error queueing confirmation email: %s\n", err.Error())
				}
			}()
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			booking, err := orchestrator.CancelBooking(ctx, params.ID, userId)
			if err != nil {
				log.Printf("Error cancelling booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(statusForOrchestratorError(err), gin.H{"error": err.Error()})
				return
			}
			go func() {
				gdb := db.GetDb()
				var requester models.User
				if err := gdb.Where("id = ?", booking.UserID).First(&requester).Error; err != nil {
					return
				}
				if err := common.SendBookingCancelledEmail(booking, &requester); err != nil {
					log.Printf("Error queueing cancellation email: %s\n", err.Error())
				}
			}()
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			side := ctx.Query("side")
			gdb := db.GetDb()
			var bookings []models.Booking
			q := gdb.Model(&models.Booking{}).Order("created_at desc")
			if side == "provider" {
				q = q.Where(&models.Booking{ProviderID: userId})
			} else {
				q = q.Where(&models.Booking{UserID: userId})
			}
			if status := ctx.Query("status"); status != "" {
				q = q.Where("status = ?", status)
			}
			if err := q.Limit(100).Find(&bookings).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			var booking models.Booking
			ss := gdb.Session(&gorm.Session{PrepareStmt: true})
			if err := ss.
				Model(&models.Booking{}).
				Scopes(scopes.WithID(params.ID)).
				Preload("Payments").
				First(&booking).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if booking.UserID != userId && booking.ProviderID != userId {
				ctx.Status(http.StatusForbidden)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		GET("/bookings/:id/voucher", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			gdb := db.GetDb()

			filename := fmt.Sprintf("voucher_%d", params.ID)
			tempdir := os.Getenv("TEMP_DIR")
			wd, err := os.Getwd()
			if err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			rd := lib.GetRedisClient()
			filepath := path.Join(wd, tempdir, fmt.Sprintf("%s.jpeg", filename))

			err = gdb.Transaction(func(tx *gorm.DB) error {
				var booking models.Booking
				if err := tx.
					Where("id = ?", params.ID).
					First(&booking).
					Error; err != nil {
					return err
				}
				if booking.UserID != userId {
					return common.ErrForbidden
				}
				if booking.Status != types.BOOKING_CONFIRMED {
					return errors.New("voucher is only available for confirmed bookings")
				}

				// a voucher generated earlier may still live in the asset
				// bucket; pull it down instead of regenerating
				if os.Getenv("APP_ENV") != "local" && rd != nil {
					if _, err := rd.Get(ctx, filename).Result(); err == nil {
						if err := awslib.S3DownloadVoucher(filename); err == nil {
							if _, err := os.Stat(filepath); err == nil {
								return nil
							}
						}
					}
				}

				rawData := map[string]any{
					"bookingId":   booking.ID,
					"subjectType": booking.SubjectType,
					"subjectId":   booking.SubjectID,
					"startsAt":    booking.StartsAt,
				}
				rawBytes, _ := json.Marshal(rawData)
				rawText := string(rawBytes)

				keyEnv := os.Getenv("API_QRC_SECRET")
				key, err := hex.DecodeString(keyEnv)
				if err != nil {
					log.Printf("Could not read key from string: %s\n", err.Error())
					return err
				}
				encryptedMessage, err := utils.EncryptMessage(key, rawText)
				if err != nil {
					log.Printf("Error encrypting message: %s\n", err.Error())
					return err
				}
				qrc, err := qrcode.New(encryptedMessage)
				if err != nil {
					return err
				}
				if err = qrc.Save(filepath); err != nil {
					log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
					return err
				}
				appEnv := os.Getenv("APP_ENV")
				if appEnv != "local" {
					url, err := awslib.S3UploadVoucher(filename, filepath)
					if err != nil {
						log.Printf("Error uploading asset to S3 bucket: %s\n", err.Error())
						return err
					}
					if rd != nil {
						rd.SetEx(context.Background(), filename, *url, 2*time.Hour)
					}
				}
				return nil
			})
			if err != nil {
				if errors.Is(err, common.ErrForbidden) {
					ctx.Status(http.StatusForbidden)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.FileAttachment(filepath, "voucher.jpeg")
		})
	return g
}
