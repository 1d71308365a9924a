package controllers

import (
	"errors"
	"net/http"

	"docshare/services"
	"docshare/utils"

	"github.com/gin-gonic/gin"
)

// serviceError maps a service failure onto the response envelope. AppError
// carries its own HTTP status; anything else is an opaque 500.
func serviceError(ctx *gin.Context, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		utils.Error(ctx, appErr.HTTPCode, appErr.HTTPCode*100, appErr.Message)
		return
	}
	utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
}
