package handlers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/http/middleware"
	"tourbook/internal/imaging"
	"tourbook/internal/repositories"
)

// UserHandler exposes the self-service endpoints of a logged-in user.
type UserHandler struct {
	Users     repositories.UserRepo
	Resizer   imaging.Resizer
	UploadDir string
}

// GET /api/v1/users/me
func (h UserHandler) Me() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		user, found := middleware.CurrentUser(c)
		if !found {
			return domain.NewUnauthorized("")
		}
		fresh, err := h.Users.FindByID(c.Request.Context(), user.ID)
		if err != nil {
			return err
		}
		ok(c, gin.H{"user": fresh.ToPublic()})
		return nil
	})
}

// PATCH /api/v1/users/updateMe
//
// Accepts name/email (form or JSON) plus an optional photo. Password
// fields are refused here; the password endpoint re-authenticates.
func (h UserHandler) UpdateMe() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		user, found := middleware.CurrentUser(c)
		if !found {
			return domain.NewUnauthorized("")
		}

		patch := map[string]any{}
		if c.ContentType() == "application/json" {
			var body map[string]any
			if err := c.ShouldBindJSON(&body); err != nil {
				return domain.NewValidation(err.Error())
			}
			if _, has := body["password"]; has {
				return domain.NewValidation("This route is not for password updates. Please use /updateMyPassword.")
			}
			if _, has := body["passwordConfirm"]; has {
				return domain.NewValidation("This route is not for password updates. Please use /updateMyPassword.")
			}
			for _, field := range []string{"name", "email"} {
				if v, has := body[field]; has {
					patch[field] = v
				}
			}
		} else {
			if v := c.PostForm("name"); v != "" {
				patch["name"] = v
			}
			if v := c.PostForm("email"); v != "" {
				patch["email"] = v
			}
			if c.PostForm("password") != "" {
				return domain.NewValidation("This route is not for password updates. Please use /updateMyPassword.")
			}
			if _, err := c.FormFile("photo"); err == nil {
				filename, err := h.processPhoto(c, user.ID)
				if err != nil {
					return err
				}
				if err := h.Users.SetPhoto(c.Request.Context(), user.ID, filename); err != nil {
					return err
				}
			}
		}

		updated, err := h.Users.Update(c.Request.Context(), user.ID, patch)
		if err != nil {
			return err
		}
		ok(c, gin.H{"user": updated.ToPublic()})
		return nil
	})
}

// DELETE /api/v1/users/deleteMe
func (h UserHandler) DeleteMe() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		user, found := middleware.CurrentUser(c)
		if !found {
			return domain.NewUnauthorized("")
		}
		if err := h.Users.Deactivate(c.Request.Context(), user.ID); err != nil {
			return err
		}
		noContent(c)
		return nil
	})
}

func (h UserHandler) processPhoto(c *gin.Context, userID int64) (string, error) {
	file, err := c.FormFile("photo")
	if err != nil {
		return "", domain.NewValidation("missing photo upload")
	}
	src, err := file.Open()
	if err != nil {
		return "", domain.NewInternal(err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return "", domain.NewInternal(err)
	}

	resized, err := h.Resizer.Resize(c.Request.Context(), data, 500, 500)
	if err != nil {
		return "", domain.NewInternal(fmt.Errorf("resize photo: %w", err))
	}

	filename := fmt.Sprintf("user-%d-%d.jpeg", userID, time.Now().Unix())
	dir := filepath.Join(h.UploadDir, "users")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.NewInternal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), resized, 0o644); err != nil {
		return "", domain.NewInternal(err)
	}
	return filename, nil
}
