package main

import (
	"net/http"
	"tms/src/common"
	"tms/src/db"
	"tms/src/models"
	"tms/src/models/scopes"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func notificationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/notifications", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			var notifications []models.Notification
			q := gdb.
				Model(&models.Notification{}).
				Scopes(scopes.ForRecipient(userId)).
				Order("created_at desc").
				Limit(100)
			if ctx.Query("unread") == "true" {
				q = q.Scopes(scopes.Unread)
			}
			if err := q.Find(&notifications).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": notifications, "count": len(notifications)})
		}).
		PUT("/notifications/read/:id", func(ctx *gin.Context) {
			var params struct {
				ID string `uri:"id" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, err := uuid.Parse(params.ID); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			if err := common.MarkNotificationRead(db.GetDb(), params.ID, userId); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		PUT("/notifications/read", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			if err := common.MarkAllNotificationsRead(db.GetDb(), userId); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
