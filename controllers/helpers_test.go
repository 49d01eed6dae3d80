package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/inkblog/inkblog/config"
	"github.com/inkblog/inkblog/middleware"
	"github.com/inkblog/inkblog/models"
	"github.com/inkblog/inkblog/store"
)

const testSecret = "unit-test-secret"

func setupConfig(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{
		SecretKey: testSecret,
		BaseURL:   "http://localhost:8080",
		LogLevel:  "error",
	})
}

// --- fake stores ---

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  []*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1}
}

func (f *fakeUserStore) Create(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return store.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	user.ID = f.nextID
	f.nextID++
	if user.ImageFile == "" {
		user.ImageFile = models.DefaultImageFile
	}
	cp := *user
	f.users = append(f.users, &cp)
	return nil
}

func (f *fakeUserStore) FindByUsername(username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) FindByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) FindByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) Update(id uint, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var target *models.User
	for _, u := range f.users {
		if u.ID == id {
			target = u
			break
		}
	}
	if target == nil {
		return store.ErrNotFound
	}
	if v, ok := fields["username"].(string); ok {
		for _, u := range f.users {
			if u.ID != id && u.Username == v {
				return store.ErrDuplicateUsername
			}
		}
	}
	if v, ok := fields["email"].(string); ok {
		for _, u := range f.users {
			if u.ID != id && u.Email == v {
				return store.ErrDuplicateEmail
			}
		}
	}
	if v, ok := fields["username"].(string); ok {
		target.Username = v
	}
	if v, ok := fields["email"].(string); ok {
		target.Email = v
	}
	if v, ok := fields["image_file"].(string); ok {
		target.ImageFile = v
	}
	if v, ok := fields["password_hash"].(string); ok {
		target.PasswordHash = v
	}
	return nil
}

func (f *fakeUserStore) UpdatePassword(id uint, passwordHash string) error {
	return f.Update(id, map[string]interface{}{"password_hash": passwordHash})
}

func (f *fakeUserStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakePostStore struct {
	mu     sync.Mutex
	nextID uint
	posts  []models.Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{nextID: 1}
}

func (f *fakePostStore) Create(post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = f.nextID
	f.nextID++
	f.posts = append(f.posts, *post)
	return nil
}

func (f *fakePostStore) FindByID(id uint) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakePostStore) Update(post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.posts {
		if p.ID == post.ID {
			f.posts[i] = *post
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakePostStore) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.posts {
		if p.ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// ListByUser mirrors the storage contract: newest first, pages of five,
// an empty page past the end.
func (f *fakePostStore) ListByUser(userID uint, page int) ([]models.Post, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page < 1 {
		page = 1
	}
	var owned []models.Post
	for _, p := range f.posts {
		if p.UserID == userID {
			owned = append(owned, p)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID > owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	total := int64(len(owned))
	start := (page - 1) * store.PageSize
	if start >= len(owned) {
		return nil, total, nil
	}
	end := start + store.PageSize
	if end > len(owned) {
		end = len(owned)
	}
	return owned[start:end], total, nil
}

func mustFind(t *testing.T, users *fakeUserStore, id uint) *models.User {
	t.Helper()
	u, err := users.FindByID(id)
	if err != nil {
		t.Fatalf("find user %d: %v", id, err)
	}
	return u
}

// --- fake mailer ---

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// --- request helpers ---

func doJSON(t *testing.T, r *gin.Engine, method, target, bearer string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func authGate() gin.HandlerFunc {
	return middleware.RequireAuth()
}

func anonGate() gin.HandlerFunc {
	return middleware.RequireAnonymous()
}
