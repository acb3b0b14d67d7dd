package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/http/middleware"
	"tourbook/internal/services"
)

// AuthHandler exposes the credential endpoints and owns session cookie
// emission.
type AuthHandler struct {
	Auth         services.AuthService
	CookieSecure bool
	CookieTTL    time.Duration
}

type signupRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

// POST /api/v1/users/signup
func (h AuthHandler) Signup() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return domain.NewValidation(err.Error())
		}
		user, err := h.Auth.Signup(c.Request.Context(), services.SignupInput{
			Name:            req.Name,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
		})
		if err != nil {
			return err
		}
		return h.sendToken(c, user, http.StatusCreated)
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/v1/users/login
func (h AuthHandler) Login() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return domain.NewValidation("Please provide email and password")
		}
		user, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			return err
		}
		return h.sendToken(c, user, http.StatusOK)
	})
}

// GET /api/v1/users/logout
//
// Tokens are client-held and stateless: logout only overwrites the cookie
// with a short-lived dummy credential. A still-valid token elsewhere
// remains usable until it expires.
func (h AuthHandler) Logout() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		token, err := h.Auth.IssueLogoutToken()
		if err != nil {
			return err
		}
		c.SetCookie(middleware.SessionCookie, token, 10, "/", "", h.CookieSecure, true)
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return nil
	})
}

type forgotRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /api/v1/users/forgotPassword
func (h AuthHandler) ForgotPassword() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		var req forgotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return domain.NewValidation("Please provide your email address")
		}
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base := scheme + "://" + c.Request.Host + "/api/v1/users/resetPassword"
		if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email, base); err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
		return nil
	})
}

type resetRequest struct {
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

// PATCH /api/v1/users/resetPassword/:token
func (h AuthHandler) ResetPassword() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		var req resetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return domain.NewValidation(err.Error())
		}
		user, err := h.Auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, req.PasswordConfirm)
		if err != nil {
			return err
		}
		return h.sendToken(c, user, http.StatusOK)
	})
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

// PATCH /api/v1/users/updateMyPassword
func (h AuthHandler) UpdateMyPassword() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		user, found := middleware.CurrentUser(c)
		if !found {
			return domain.NewUnauthorized("")
		}
		var req updatePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return domain.NewValidation(err.Error())
		}
		updated, err := h.Auth.UpdatePassword(c.Request.Context(), user.ID,
			req.PasswordCurrent, req.Password, req.PasswordConfirm)
		if err != nil {
			return err
		}
		// Fresh token: the old one just became invalid.
		return h.sendToken(c, updated, http.StatusOK)
	})
}

func (h AuthHandler) sendToken(c *gin.Context, user models.User, status int) error {
	token, err := h.Auth.IssueToken(user.ID)
	if err != nil {
		return err
	}
	c.SetCookie(middleware.SessionCookie, token, int(h.CookieTTL.Seconds()), "/", "", h.CookieSecure, true)
	c.JSON(status, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": user.ToPublic()},
	})
	return nil
}
