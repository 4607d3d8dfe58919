package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
)

type loginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input loginInput
		if !bindJSON(c, &input) {
			return
		}
		info, err := models.Login(c.Request.Context(), input.Username, input.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetTokenFromContext(c.Request.Context()); !ok {
			// bearer tokens expire on their own
			respondData(c, http.StatusOK, true)
			return
		}
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, ok)
	}
}

func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, _ := utils.GetUserIdFromContext(ctx)
		user, err := models.GetUserById(ctx, userId)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{
			"user":        user,
			"permissions": user.PermissionList(),
		})
	}
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input changePasswordInput
		if !bindJSON(c, &input) {
			return
		}
		if err := models.ChangePassword(c.Request.Context(), input.OldPassword, input.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, true)
	}
}
