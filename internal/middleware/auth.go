package middleware

import (
	"encoding/json"
	"karmafeed/internal/models"
	"karmafeed/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	log "github.com/sirupsen/logrus"
)

const CheckUserKey = "user"

// ActorHeader 携带 JSON 编码的身份，GET 请求用它标识当前浏览者
const ActorHeader = "X-Actor"

// actorEnvelope 请求体中的身份字段；"user" 兼容旧客户端
type actorEnvelope struct {
	Actor *services.Identity `json:"actor"`
	User  *services.Identity `json:"user"`
}

// AuthRequired ensures the request carries a resolvable identity
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "a resolvable identity is required",
				Code:  models.ErrAuthentication,
			})
			return
		}
		c.Next()
	}
}

// LoadActor 从请求体或 X-Actor 头解析身份并放入 context。
// 写请求会按用户名懒创建用户；读请求只查找，不产生副作用。
func LoadActor(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := extractIdentity(c)
		if identity == nil {
			c.Next()
			return
		}

		var (
			user *models.User
			err  error
		)
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			user, err = users.Lookup(c.Request.Context(), *identity)
		} else {
			user, err = users.Ensure(c.Request.Context(), *identity)
		}

		switch {
		case models.IsCode(err, models.ErrAuthentication):
			// 无法解析的身份按匿名处理，由 AuthRequired 决定是否拒绝
		case err != nil:
			log.WithError(err).Error("Failed to load actor")
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: "Internal server error",
				Code:  models.ErrInternal,
			})
			return
		case user != nil:
			c.Set(CheckUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser 返回当前请求的用户，匿名时为 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID 匿名时返回 0
func CurrentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

func extractIdentity(c *gin.Context) *services.Identity {
	if c.Request.ContentLength != 0 && c.ContentType() == binding.MIMEJSON {
		var env actorEnvelope
		if err := c.ShouldBindBodyWith(&env, binding.JSON); err == nil {
			if env.Actor != nil {
				return env.Actor
			}
			if env.User != nil {
				return env.User
			}
		}
	}

	if raw := c.GetHeader(ActorHeader); raw != "" {
		var id services.Identity
		if err := json.Unmarshal([]byte(raw), &id); err == nil {
			return &id
		}
		log.WithField("header", ActorHeader).Debug("Ignoring malformed actor header")
	}
	return nil
}
