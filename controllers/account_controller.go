package controllers

import (
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkblog/inkblog/config"
	"github.com/inkblog/inkblog/middleware"
	"github.com/inkblog/inkblog/models"
	"github.com/inkblog/inkblog/store"
	"github.com/inkblog/inkblog/utils"
)

// loginFailedMessage is the single generic credential failure string. The
// unknown-email and wrong-password paths must emit this byte-identical
// message so callers cannot enumerate accounts.
const loginFailedMessage = "login unsuccessful, please check email and password"

// AccountController handles registration, sessions and profile management.
type AccountController struct {
	users store.UserStore
}

// NewAccountController creates an AccountController.
func NewAccountController(users store.UserStore) *AccountController {
	return &AccountController{users: users}
}

// Register creates a local account with a bcrypt-hashed password.
func (a *AccountController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Confirm  string `json:"confirm" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if msg := validateUsername(req.Username); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, msg)
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, msg)
		return
	}
	if msg := validatePassword(req.Password, req.Confirm); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40004, msg)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := a.users.Create(&user); err != nil {
		switch err {
		case store.ErrDuplicateUsername:
			utils.Error(ctx, http.StatusConflict, 40901, "username already taken, please choose a different one")
		case store.ErrDuplicateEmail:
			utils.Error(ctx, http.StatusConflict, 40902, "email already registered, please choose a different one")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		}
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "account created, you are now able to log in", gin.H{
		"user":     publicUser(user),
		"redirect": "/login",
	})
}

// Login verifies credentials and issues a session token. The redirect target
// honors a sanitized ?next= parameter when one was captured.
func (a *AccountController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Remember bool   `json:"remember"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	user, err := a.users.FindByEmail(strings.TrimSpace(req.Email))
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, loginFailedMessage)
		return
	}

	tok, err := utils.GenerateSessionToken(user.ID, user.Username, req.Remember)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate session token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":    tok,
		"user":     publicUser(*user),
		"redirect": sanitizeNext(ctx.Query("next")),
	})
}

// Logout revokes the presented session token, if any, and always succeeds.
func (a *AccountController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 {
		tok := strings.TrimSpace(parts[1])
		if claims, err := utils.ParseSessionToken(tok); err == nil {
			expiresAt := time.Now().Add(utils.SessionDuration(false))
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
			utils.BlacklistToken(tok, expiresAt)
		}
	}
	utils.Success(ctx, gin.H{"redirect": "/"})
}

// Account returns the current profile, used to pre-populate the update form.
func (a *AccountController) Account(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "unauthorized")
		return
	}
	user, err := a.users.FindByID(userID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	utils.Success(ctx, gin.H{"user": publicUser(*user)})
}

// UpdateAccount changes username and email. Uniqueness violations surface as
// field-level validation failures, and the redirect hint points back at the
// account page to avoid duplicate submits on reload.
func (a *AccountController) UpdateAccount(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "unauthorized")
		return
	}

	type request struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if msg := validateUsername(req.Username); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, msg)
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, msg)
		return
	}

	user, err := a.users.FindByID(userID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	err = a.users.Update(userID, map[string]interface{}{
		"username": req.Username,
		"email":    req.Email,
	})
	if err != nil {
		switch err {
		case store.ErrDuplicateUsername:
			utils.Error(ctx, http.StatusConflict, 40901, "username already taken, please choose a different one")
		case store.ErrDuplicateEmail:
			utils.Error(ctx, http.StatusConflict, 40902, "email already registered, please choose a different one")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to update account")
		}
		return
	}

	invalidateUserCaches(userID)

	user.Username = req.Username
	user.Email = req.Email
	utils.Success(ctx, gin.H{
		"user":     publicUser(*user),
		"redirect": "/account",
	})
}

// UploadPicture stores a new profile picture and points the account at it.
// The replaced file is left on disk; reclaiming old pictures is a known gap.
func (a *AccountController) UploadPicture(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("picture")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "no picture uploaded")
		return
	}
	defer file.Close()

	const maxSize = 5 * 1024 * 1024
	if header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40008, "picture exceeds 5MB")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		utils.Error(ctx, http.StatusBadRequest, 40009, "picture must be a jpg or png")
		return
	}

	uploadDir := config.Get().UploadDir
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to create upload directory")
		return
	}

	name := uuid.NewString() + ext
	dstPath := filepath.Join(uploadDir, name)
	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to save picture")
		return
	}
	defer out.Close()

	lr := &io.LimitedReader{R: file, N: maxSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil || written > maxSize {
		_ = out.Close()
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusBadRequest, 40008, "picture exceeds 5MB")
		return
	}

	if err := a.users.Update(userID, map[string]interface{}{"image_file": name}); err != nil {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to update profile picture")
		return
	}

	user, err := a.users.FindByID(userID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	invalidateUserCaches(userID)

	utils.Success(ctx, gin.H{
		"user":     publicUser(*user),
		"redirect": "/account",
	})
}

// Validation helpers.

func validateUsername(s string) string {
	l := len([]rune(s))
	if l < 2 || l > 20 {
		return "username must be 2-20 characters"
	}
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '_' {
			continue
		}
		return "username may only contain letters, digits, '-' and '_'"
	}
	return ""
}

func validateEmail(s string) string {
	if s == "" || len(s) > 120 {
		return "email must be 1-120 characters"
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return "invalid email address"
	}
	return ""
}

func validatePassword(password, confirm string) string {
	if password != confirm {
		return "passwords do not match"
	}
	if len(password) < 6 || len(password) > 72 {
		return "password must be 6-72 characters"
	}
	return ""
}

// sanitizeNext keeps only same-site redirect targets.
func sanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// invalidateUserCaches drops the cached listing pages after profile changes,
// since their payload embeds the profile.
func invalidateUserCaches(userID uint) {
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":posts:")
}

func publicUser(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"image_file": user.ImageFile,
		"image_url":  fmt.Sprintf("/static/profile_pics/%s", user.ImageFile),
		"created_at": user.CreatedAt,
	}
}
