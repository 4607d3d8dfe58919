package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
)

func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue(c.Request.Context(), "Token:"+token)
		if err != nil || !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireUser resolves the session or bearer token to an active user and scopes the request to its business.
// Platform admins may act on another business through the business-id header.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var user *models.User
		var err error
		if username, ok := utils.GetUsernameFromContext(ctx); ok && username != "" {
			user, err = models.GetUserByUsername(ctx, username)
		} else if claim := CtxValue(ctx); claim != nil {
			user, err = models.GetUserById(ctx, claim.ID)
			if err == nil && user.BusinessId != claim.BusinessId {
				err = utils.ErrorPermissionDenied
			}
		} else {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if user.IsActive != nil && !*user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": models.ErrorUserDisabled.Error()})
			return
		}

		businessId := user.BusinessId
		isAdmin := user.Role == models.UserRoleAdmin
		if override := c.GetHeader("business-id"); isAdmin && override != "" {
			businessId = override
		}

		ctx = utils.SetBusinessIdInContext(ctx, businessId)
		ctx = utils.SetUsernameInContext(ctx, user.Username)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.Name)
		ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
		ctx = utils.SetPermissionsInContext(ctx, user.PermissionList())
		ctx = utils.SetIsAdminInContext(ctx, isAdmin)
		if user.CompanyId != nil {
			ctx = utils.SetCompanyIdInContext(ctx, *user.CompanyId)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func RequirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !models.HasPermission(c.Request.Context(), code) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": utils.ErrorPermissionDenied.Error()})
			return
		}
		c.Next()
	}
}
