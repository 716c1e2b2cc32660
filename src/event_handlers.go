package main

import (
	"errors"
	"net/http"

	"ticketbooth/src/boot"
	"ticketbooth/src/inventory"
	"ticketbooth/src/types"
	"ticketbooth/src/utils"

	"github.com/gin-gonic/gin"
)

func eventHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	g.
		GET("/events/:id/availability", func(ctx *gin.Context) {
			id, err := utils.ParseID(ctx)
			if err != nil {
				ctx.Error(err)
				return
			}
			availability, err := app.Inventory.Availability(ctx.Request.Context(), id)
			if errors.Is(err, inventory.ErrEventNotFound) {
				ctx.Error(types.NewNotFoundError("Event not found"))
				return
			}
			if err != nil {
				ctx.Error(err)
				return
			}
			ctx.JSON(http.StatusOK, types.SuccessResponse(availability, ""))
		})
	return g
}
