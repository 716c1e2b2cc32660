package main

import (
	"net/http"

	"ticketbooth/src/boot"
	"ticketbooth/src/middlewares"
	"ticketbooth/src/models"
	"ticketbooth/src/types"
	"ticketbooth/src/utils"

	"github.com/gin-gonic/gin"
)

func reservationHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	limit := middlewares.RateLimit(app.Redis, "reservations", app.Config.RateLimit, app.Config.RateLimitWindow)
	g.
		GET("/reservations", func(ctx *gin.Context) {
			data, err := app.Reservations.ListReservations(ctx.Request.Context(), middlewares.GetPrincipal(ctx))
			if err != nil {
				ctx.Error(err)
				return
			}
			ctx.JSON(http.StatusOK, types.SuccessResponse(types.ListResponse[models.Reservation]{Items: data, Count: int64(len(data))}, ""))
		}).
		GET("/reservations/count", func(ctx *gin.Context) {
			count, err := app.Reservations.CountConfirmed(ctx.Request.Context(), middlewares.GetPrincipal(ctx))
			if err != nil {
				ctx.Error(err)
				return
			}
			ctx.JSON(http.StatusOK, types.SuccessResponse(gin.H{"count": count}, ""))
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			id, err := utils.ParseID(ctx)
			if err != nil {
				ctx.Error(err)
				return
			}
			reservation, err := app.Reservations.GetReservation(ctx.Request.Context(), middlewares.GetPrincipal(ctx), id)
			if err != nil {
				ctx.Error(err)
				return
			}
			ctx.JSON(http.StatusOK, types.SuccessResponse(reservation, ""))
		}).
		POST("/reservations", limit, func(ctx *gin.Context) {
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.Error(utils.BindingError(err))
				return
			}
			reservation, err := app.Reservations.CreateReservation(ctx.Request.Context(), middlewares.GetPrincipal(ctx), body.Tickets)
			if err != nil {
				ctx.Error(err)
				return
			}
			ctx.JSON(http.StatusCreated, types.SuccessResponse(reservation, "Reservation created"))
		}).
		DELETE("/reservations/:id", limit, func(ctx *gin.Context) {
			id, err := utils.ParseID(ctx)
			if err != nil {
				ctx.Error(err)
				return
			}
			var body types.CancelReservationRequestBody
			if err := utils.BindOptionalJSON(ctx, &body); err != nil {
				ctx.Error(err)
				return
			}
			result, err := app.Cancellations.CancelReservation(ctx.Request.Context(), middlewares.GetPrincipal(ctx), id, body.Quantity)
			if err != nil {
				ctx.Error(err)
				return
			}
			message := "Tickets released"
			if result.Cancelled() {
				message = "Reservation cancelled"
			}
			ctx.JSON(http.StatusOK, types.SuccessResponse(gin.H{
				"eventId":           result.EventID,
				"status":            result.Status,
				"releasedTicketIds": result.ReleasedTicketIDs,
			}, message))
		}).
		POST("/reservations/:id/cancel", limit, func(ctx *gin.Context) {
			id, err := utils.ParseID(ctx)
			if err != nil {
				ctx.Error(err)
				return
			}
			result, err := app.Cancellations.CancelReservation(ctx.Request.Context(), middlewares.GetPrincipal(ctx), id, nil)
			if err != nil {
				ctx.Error(err)
				return
			}
			ctx.JSON(http.StatusOK, types.SuccessResponse(result.Reservation, "Reservation cancelled"))
		})
	return g
}
