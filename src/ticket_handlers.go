package main

import (
	"errors"
	"net/http"

	"ticketbooth/src/boot"
	"ticketbooth/src/inventory"
	"ticketbooth/src/middlewares"
	"ticketbooth/src/types"
	"ticketbooth/src/utils"

	"github.com/gin-gonic/gin"
)

func ticketHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	g.
		POST("/tickets", middlewares.RequireRole(types.ROLE_ADMIN, types.ROLE_ORGANIZER), func(ctx *gin.Context) {
			var body types.CreateTicketsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.Error(utils.BindingError(err))
				return
			}
			principal := middlewares.GetPrincipal(ctx)
			event, err := app.Inventory.FindEvent(ctx.Request.Context(), body.EventID)
			if errors.Is(err, inventory.ErrEventNotFound) {
				ctx.Error(types.NewNotFoundError("Event not found"))
				return
			}
			if err != nil {
				ctx.Error(err)
				return
			}
			if principal.Is(types.ROLE_ORGANIZER) && event.OrganizerID != principal.UserID {
				ctx.Error(types.NewForbiddenError("You can only add tickets to your own events"))
				return
			}

			count := body.Count
			if count == 0 {
				count = 1
			}
			currency := body.Currency
			if currency == "" {
				currency = app.Config.Currency
			}
			tickets, err := app.Inventory.CreateTier(ctx.Request.Context(), event.ID, body.Price, currency, count)
			if err != nil {
				ctx.Error(err)
				return
			}
			ctx.JSON(http.StatusCreated, types.SuccessResponse(tickets, "Tickets created"))
		})
	return g
}
