package api

import (
	"net/http" // HTTP status codes

	"finance_tracker/internal/service" // Credential service

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// SignupHandler registers a new user
func SignupHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.SignupInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
			return
		}
		user, err := auth.Signup(c.Request.Context(), req)
		if err != nil {
			respondError(c, "signup", err)
			return
		}
		logrus.WithField("user_id", user.ID).Info("User registered") // Log signup
		c.JSON(http.StatusCreated, gin.H{"message": "Signup successful"})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LoginInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
			return
		}
		res, err := auth.Login(c.Request.Context(), req)
		if err != nil {
			respondError(c, "login", err)
			return
		}
		logrus.WithField("user_id", res.User.ID).Info("User logged in") // Log login
		// Return the token and user in the response
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   res.Token,
			"user":    res.User,
		})
	}
}
