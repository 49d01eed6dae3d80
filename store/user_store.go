package store

import (
	"gorm.io/gorm"

	"github.com/inkblog/inkblog/models"
)

// UserStore persists account records.
type UserStore interface {
	Create(user *models.User) error
	FindByUsername(username string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	Update(id uint, fields map[string]interface{}) error
	UpdatePassword(id uint, passwordHash string) error
}

type gormUserStore struct {
	db *gorm.DB
}

// NewUserStore returns a UserStore backed by the given database handle.
func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) Create(user *models.User) error {
	return translateUserError(s.db.Create(user).Error)
}

func (s *gormUserStore) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateLookupError(err)
	}
	return &user, nil
}

func (s *gormUserStore) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateLookupError(err)
	}
	return &user, nil
}

func (s *gormUserStore) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, translateLookupError(err)
	}
	return &user, nil
}

// Update applies a partial update in a single statement. Unique index
// violations on username or email come back as the duplicate errors.
func (s *gormUserStore) Update(id uint, fields map[string]interface{}) error {
	res := s.db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translateUserError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormUserStore) UpdatePassword(id uint, passwordHash string) error {
	return s.Update(id, map[string]interface{}{"password_hash": passwordHash})
}
