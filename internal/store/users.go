package store

import (
	"context"
	"strings"

	"github.com/trentd187/pickup-run/internal/models"
	"gorm.io/gorm"
)

// CreateUser inserts a user. passwordHash must already be hashed; the store never sees plaintext.
// A duplicate username or email comes back as ErrUsernameTaken / ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&user).Error
	})
	if isUniqueViolation(err) {
		if strings.Contains(violatedConstraint(err), "email") {
			return nil, ErrEmailTaken
		}
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser looks a user up by id.
func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, notFound("user", id, err)
	}
	return &user, nil
}

// GetUserByUsername looks a user up for login.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UsernamesByID returns the usernames for ids in one query. Unknown ids are simply absent.
func (s *Store) UsernamesByID(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	err := s.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
