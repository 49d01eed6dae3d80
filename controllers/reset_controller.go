package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkblog/inkblog/store"
	"github.com/inkblog/inkblog/token"
	"github.com/inkblog/inkblog/utils"
)

// resetNotice is shown for every reset request, whether or not the email
// resolves to an account, so the endpoint cannot be used to enumerate them.
const resetNotice = "an email has been sent with instructions to reset your password"

const invalidTokenMessage = "that is an invalid or expired token"

// resetMailCooldown bounds how often reset mail goes out per address.
const resetMailCooldown = 60 * time.Second

// ResetController implements the password reset flow: a signed, expiring
// token is mailed out and later exchanged for a new password.
type ResetController struct {
	users   store.UserStore
	codec   *token.Codec
	mailer  utils.Mailer
	baseURL string
	ttl     time.Duration
}

// NewResetController creates a ResetController.
func NewResetController(users store.UserStore, codec *token.Codec, mailer utils.Mailer, baseURL string, ttl time.Duration) *ResetController {
	if ttl <= 0 {
		ttl = token.DefaultTTL
	}
	return &ResetController{users: users, codec: codec, mailer: mailer, baseURL: strings.TrimSuffix(baseURL, "/"), ttl: ttl}
}

// RequestReset issues a reset token and mails it when the address is known.
// Unknown addresses get the same notice and no mail.
func (r *ResetController) RequestReset(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if msg := validateEmail(email); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, msg)
		return
	}

	user, err := r.users.FindByEmail(email)
	if err == store.ErrNotFound {
		// Deliberate: same notice, nothing sent.
		r.notice(ctx)
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to process reset request")
		return
	}

	if !utils.CooldownTrySet("reset:"+email, resetMailCooldown) {
		// Still the generic notice; the earlier mail is on its way.
		r.notice(ctx)
		return
	}

	tok, err := r.codec.Issue(user.ID, r.ttl)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to issue reset token")
		return
	}

	link := fmt.Sprintf("%s/reset_password/%s", r.baseURL, tok)
	body := fmt.Sprintf(
		"To reset your password, visit the following link:\n%s\n\nIf you did not make this request then simply ignore this email and no changes will be made.",
		link,
	)
	if err := r.mailer.Send(user.Email, "Password Reset Request", body); err != nil {
		// Mail failure must not crash the request or leak account existence.
		if utils.Sugar != nil {
			utils.Sugar.Warnf("reset mail delivery failed for user %d: %v", user.ID, err)
		}
	}
	r.notice(ctx)
}

// VerifyResetToken checks a token before the new-password form is shown.
func (r *ResetController) VerifyResetToken(ctx *gin.Context) {
	if _, err := r.codec.Redeem(ctx.Param("token")); err != nil {
		r.invalidToken(ctx)
		return
	}
	utils.Success(ctx, gin.H{"valid": true})
}

// ResetPassword redeems a token and sets the new password. An invalid or
// expired token redirects back to the request form; a token whose account
// has vanished is a distinct 404.
func (r *ResetController) ResetPassword(ctx *gin.Context) {
	userID, err := r.codec.Redeem(ctx.Param("token"))
	if err != nil {
		r.invalidToken(ctx)
		return
	}

	user, err := r.users.FindByID(userID)
	if err == store.ErrNotFound {
		utils.Error(ctx, http.StatusNotFound, 40402, "account not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load account")
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
		Confirm  string `json:"confirm" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}
	if msg := validatePassword(req.Password, req.Confirm); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40004, msg)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to hash password")
		return
	}
	if err := r.users.UpdatePassword(user.ID, hash); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to update password")
		return
	}

	utils.Respond(ctx, http.StatusOK, 0, "your password has been updated, you are now able to log in", gin.H{
		"redirect": "/login",
	})
}

func (r *ResetController) notice(ctx *gin.Context) {
	utils.Respond(ctx, http.StatusOK, 0, resetNotice, gin.H{"redirect": "/login"})
}

func (r *ResetController) invalidToken(ctx *gin.Context) {
	utils.Respond(ctx, http.StatusBadRequest, 40012, invalidTokenMessage, gin.H{"redirect": "/reset_password"})
}
