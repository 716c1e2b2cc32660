package main

import (
	"net/http"

	"ticketbooth/src/boot"
	"ticketbooth/src/middlewares"
	"ticketbooth/src/types"
	"ticketbooth/src/utils"

	"github.com/gin-gonic/gin"
)

func paymentHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	limit := middlewares.RateLimit(app.Redis, "payments", app.Config.RateLimit, app.Config.RateLimitWindow)
	g.
		POST("/payments", limit, func(ctx *gin.Context) {
			var body types.CreatePaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.Error(utils.BindingError(err))
				return
			}
			payment, err := app.Payments.SubmitPayment(ctx.Request.Context(), middlewares.GetPrincipal(ctx), body.ReservationID, body.Amount)
			if err != nil {
				ctx.Error(err)
				return
			}
			ctx.JSON(http.StatusCreated, types.SuccessResponse(payment, "Payment completed"))
		})
	return g
}
