package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/apperr"
	"vidhub/internal/model"
	"vidhub/internal/transport/http/middleware"
	"vidhub/internal/transport/http/response"
)

// CookieConfig describes how session cookies are written.
type CookieConfig struct {
	Secure        bool
	AccessMaxAge  int
	RefreshMaxAge int
}

type UserHandler struct {
	accounts *app.AccountService
	cookies  CookieConfig
	uploads  UploadConfig
}

type RegisterRequest struct {
	Username string `form:"username" binding:"required,max=64"`
	Email    string `form:"email" binding:"required,email,max=128"`
	Password string `form:"password" binding:"required,max=72"`
	FullName string `form:"fullName" binding:"required,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required_without=Email"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required,max=72"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,max=72,nefield=OldPassword"`
}

type UpdateAccountRequest struct {
	FullName string `json:"full_name" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email,max=128"`
}

func NewUserHandler(accounts *app.AccountService, cookies CookieConfig, uploads UploadConfig) *UserHandler {
	return &UserHandler{accounts: accounts, cookies: cookies, uploads: uploads}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	avatarPath, err := stageImage(c, h.uploads, "avatar")
	if err != nil {
		response.Fail(c, err)
		return
	}
	coverPath, err := stageImage(c, h.uploads, "coverImage")
	if err != nil {
		removeTemp(avatarPath)
		response.Fail(c, err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), app.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		AvatarPath: avatarPath,
		CoverPath:  coverPath,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "user registered successfully", user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	result, err := h.accounts.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.setSessionCookies(c, result.Tokens)
	response.OK(c, "user logged in successfully", gin.H{
		"user":          result.User,
		"access_token":  result.Tokens.AccessToken,
		"refresh_token": result.Tokens.RefreshToken,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	if err := h.accounts.Logout(c.Request.Context(), userID); err != nil {
		response.Fail(c, err)
		return
	}
	h.clearSessionCookies(c)
	response.OK(c, "user logged out", nil)
}

// RefreshToken reads the refresh token from its cookie, falling back to the
// JSON body for clients without cookie support.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	presented, _ := c.Cookie(middleware.RefreshTokenCookie)
	if presented == "" && c.Request.ContentLength != 0 {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.accounts.Refresh(c.Request.Context(), presented)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.setSessionCookies(c, pair)
	response.OK(c, "access token refreshed", pair)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "password changed successfully", nil)
}

func (h *UserHandler) CurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	user, err := h.accounts.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "current user fetched successfully", user)
}

func (h *UserHandler) UpdateAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}
	user, err := h.accounts.UpdateProfile(c.Request.Context(), userID, req.FullName, req.Email)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "account details updated successfully", user)
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.accounts.UpdateAvatar, "avatar updated successfully")
}

func (h *UserHandler) UpdateCover(c *gin.Context) {
	h.updateImage(c, "coverImage", h.accounts.UpdateCover, "cover image updated successfully")
}

func (h *UserHandler) updateImage(c *gin.Context, field string, update func(ctx context.Context, userID uint, path string) (*model.PublicUser, error), message string) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	path, err := stageImage(c, h.uploads, field)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if path == "" {
		response.Fail(c, apperr.Validation(field+" file is missing"))
		return
	}
	user, err := update(c.Request.Context(), userID, path)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, message, user)
}

func (h *UserHandler) setSessionCookies(c *gin.Context, pair *app.TokenPair) {
	h.writeCookie(c, middleware.AccessTokenCookie, pair.AccessToken, h.cookies.AccessMaxAge)
	h.writeCookie(c, middleware.RefreshTokenCookie, pair.RefreshToken, h.cookies.RefreshMaxAge)
}

func (h *UserHandler) clearSessionCookies(c *gin.Context) {
	h.writeCookie(c, middleware.AccessTokenCookie, "", -1)
	h.writeCookie(c, middleware.RefreshTokenCookie, "", -1)
}

func (h *UserHandler) writeCookie(c *gin.Context, name, value string, maxAge int) {
	if h.cookies.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(name, value, maxAge, "/", "", h.cookies.Secure, true)
}

func removeTemp(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
