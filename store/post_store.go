package store

import (
	"gorm.io/gorm"

	"github.com/inkblog/inkblog/models"
)

// PageSize is the fixed number of posts per listing page.
const PageSize = 5

// PostStore persists and lists posts.
type PostStore interface {
	Create(post *models.Post) error
	FindByID(id uint) (*models.Post, error)
	Update(post *models.Post) error
	Delete(id uint) error
	// ListByUser returns the requested 1-indexed page of the user's posts,
	// newest first, together with the total post count. A page beyond the
	// last yields an empty slice, not an error.
	ListByUser(userID uint, page int) ([]models.Post, int64, error)
}

type gormPostStore struct {
	db *gorm.DB
}

// NewPostStore returns a PostStore backed by the given database handle.
func NewPostStore(db *gorm.DB) PostStore {
	return &gormPostStore{db: db}
}

func (s *gormPostStore) Create(post *models.Post) error {
	return s.db.Create(post).Error
}

func (s *gormPostStore) FindByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, id).Error; err != nil {
		return nil, translateLookupError(err)
	}
	return &post, nil
}

func (s *gormPostStore) Update(post *models.Post) error {
	return s.db.Save(post).Error
}

func (s *gormPostStore) Delete(id uint) error {
	res := s.db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormPostStore) ListByUser(userID uint, page int) ([]models.Post, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	q := s.db.Model(&models.Post{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * PageSize).
		Limit(PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
