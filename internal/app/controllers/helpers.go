package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	"github.com/yigit/aiinfocenter/internal/middleware"
)

// parseIDParam parses a positive ID path parameter, writing a 400 response
// when it is malformed.
func parseIDParam(ctx *gin.Context, paramName string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, fmt.Sprintf("Invalid %s", paramName)).WithField(paramName)))
		return 0, false
	}
	return id, true
}

// currentActor returns the authenticated caller, writing a 401 response
// when the access policy did not run.
func currentActor(ctx *gin.Context) (middleware.Actor, bool) {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return middleware.Actor{}, false
	}
	return actor, true
}
