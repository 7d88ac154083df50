package handlers

import (
	"net/http"
	"os"

	"github.com/dipiu-foods/dipiu-api/internal/models"
	"github.com/dipiu-foods/dipiu-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/supabase-community/gotrue-go/types"
)

func CreateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		createdUser, err := u.CreateUser(&user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, createdUser)
	}
}

// AuthenticateUser signs the admin in and sets the token cookies. Failures
// always surface the same generic message so callers can't probe which
// field was wrong.
func AuthenticateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "message": "invalid request payload"})
			return
		}

		authResponse, err := u.AuthenticateUser(req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
			return
		}

		isProduction := os.Getenv("GIN_MODE") == "production"

		tokenRes, ok := authResponse.(*types.TokenResponse)
		if !ok || tokenRes.AccessToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
			return
		}

		c.SetCookie(
			"access_token",
			tokenRes.AccessToken,
			tokenRes.ExpiresIn,
			"/",
			"", // let Gin pick current domain
			isProduction,
			true,
		)
		c.SetCookie(
			"refresh_token",
			tokenRes.RefreshToken,
			3600*24*30, // 30 days
			"/",
			"",
			isProduction,
			true,
		)

		c.JSON(http.StatusOK, gin.H{
			"message": "Logged in successfully",
			"user":    tokenRes.User,
		})
	}
}
