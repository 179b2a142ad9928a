package repository

import (
	"context"

	"gorm.io/gorm"

	"medisync/internal/model"
)

// UserRepository defines persistence operations for directory profiles.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
			"uid":   user.UID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("seq asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// IdentityRepository stores identity-provider accounts.
type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	Update(ctx context.Context, identity *model.Identity) error
	Delete(ctx context.Context, uid string) error
	FindByUID(ctx context.Context, uid string) (*model.Identity, error)
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
}

type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository builds a GORM-backed identity repository.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) Create(ctx context.Context, identity *model.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

func (r *identityRepository) Update(ctx context.Context, identity *model.Identity) error {
	res := r.db.WithContext(ctx).Model(&model.Identity{}).
		Where("uid = ?", identity.UID).
		Updates(map[string]interface{}{
			"email":         identity.Email,
			"password_hash": identity.PasswordHash,
			"display_name":  identity.DisplayName,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *identityRepository) Delete(ctx context.Context, uid string) error {
	res := r.db.WithContext(ctx).Where("uid = ?", uid).Delete(&model.Identity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *identityRepository) FindByUID(ctx context.Context, uid string) (*model.Identity, error) {
	var identity model.Identity
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	var identity model.Identity
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}
