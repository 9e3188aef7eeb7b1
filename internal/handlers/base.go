package handlers

import (
	"karmafeed/internal/middleware"
	"karmafeed/internal/models"
	"karmafeed/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	log "github.com/sirupsen/logrus"
)

// RespondError 把领域错误映射为统一的 JSON 错误响应
func RespondError(c *gin.Context, err error) {
	appErr := models.AsAppError(err)
	status := models.HTTPStatus(appErr)

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"code":       appErr.Code,
		}).Error("Request failed")
	}

	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}

// bindJSON 读取 JSON 请求体；body 已被 LoadActor 缓存过，必须使用 ShouldBindBodyWith
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindBodyWith(obj, binding.JSON); err != nil {
		RespondError(c, models.NewValidationError("invalid request body"))
		return false
	}
	return true
}

// paramID 解析路径参数中的 ID，非法时直接返回 404
func paramID(c *gin.Context, name, resource string) (uint, bool) {
	raw := c.Param(name)
	id, ok := utils.ParseID(raw)
	if !ok {
		RespondError(c, models.NewNotFoundError(resource, raw))
		return 0, false
	}
	return id, true
}
