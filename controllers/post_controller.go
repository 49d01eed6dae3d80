package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkblog/inkblog/middleware"
	"github.com/inkblog/inkblog/models"
	"github.com/inkblog/inkblog/store"
	"github.com/inkblog/inkblog/utils"
)

// PostController manages post CRUD and the public per-user listing.
type PostController struct {
	users store.UserStore
	posts store.PostStore
}

// NewPostController creates a new PostController instance.
func NewPostController(users store.UserStore, posts store.PostStore) *PostController {
	return &PostController{users: users, posts: posts}
}

// ListUserPosts returns one page of a user's posts, newest first. Unknown
// usernames are a 404; a page past the end is an empty page.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40020, "missing username")
		return
	}

	user, err := p.users.FindByUsername(username)
	if err == store.ErrNotFound {
		utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load user")
		return
	}

	page := parsePage(ctx.Query("page"))

	cacheKey := fmt.Sprintf("cache:user:%d:posts:page=%d", user.ID, page)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, total, err := p.posts.ListByUser(user.ID, page)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list user posts")
		return
	}

	payload := gin.H{
		"user":  publicUser(*user),
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   store.PageSize,
			"total":       total,
			"total_pages": int((total + store.PageSize - 1) / store.PageSize),
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// CreatePost allows authenticated users to publish new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" || len([]rune(title)) > 100 {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title must be 1-100 characters")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "unauthorized")
		return
	}

	post := models.Post{
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := p.posts.Create(&post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":posts:")
	utils.Respond(ctx, http.StatusCreated, 0, "post created", gin.H{"post": post})
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid post id")
		return
	}
	post, err := p.posts.FindByID(uint(id))
	if err == store.ErrNotFound {
		utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost lets the owning user edit title and content.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" || len([]rune(title)) > 100 {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title must be 1-100 characters")
		return
	}
	post.Title = title
	post.Content = utils.Sanitize(req.Content)

	if err := p.posts.Update(post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update post")
		return
	}
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(post.UserID)) + ":posts:")
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost lets the owning user remove a post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	if err := p.posts.Delete(post.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to delete post")
		return
	}
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(post.UserID)) + ":posts:")
	utils.Success(ctx, gin.H{"deleted": post.ID})
}

// ownedPost loads the addressed post and enforces ownership.
func (p *PostController) ownedPost(ctx *gin.Context) (*models.Post, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid post id")
		return nil, false
	}
	post, err := p.posts.FindByID(uint(id))
	if err == store.ErrNotFound {
		utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
		return nil, false
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return nil, false
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "unauthorized")
		return nil, false
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only modify your own posts")
		return nil, false
	}
	return post, true
}

func parsePage(raw string) int {
	page := 1
	if v := strings.TrimSpace(raw); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	return page
}
