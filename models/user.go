package models

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID          int       `gorm:"primary_key" json:"id"`
	BusinessId  string    `gorm:"size:64;index;not null" json:"business_id"`
	Username    string    `gorm:"size:100;not null;unique" json:"username"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Password    string    `gorm:"size:255;not null" json:"-"`
	Role        UserRole  `gorm:"size:1;not null;default:U" json:"role"`
	CompanyId   *int      `gorm:"index" json:"company_id"`
	Permissions string    `gorm:"type:text" json:"permissions"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username    string   `json:"username" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Phone       string   `json:"phone"`
	Password    string   `json:"password"`
	Role        UserRole `json:"role" binding:"required"`
	CompanyId   *int     `json:"company_id"`
	Permissions []string `json:"permissions"`
	IsActive    *bool    `json:"is_active"`
}

type LoginInfo struct {
	Token        string   `json:"token"`
	AccessToken  string   `json:"access_token"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	CompanyId    *int     `json:"company_id"`
	Permissions  []string `json:"permissions"`
	BusinessName string   `json:"business_name"`
	Timezone     string   `json:"timezone"`
}

var (
	ErrorInvalidLogin = errors.New("invalid username or password")
	ErrorUserDisabled = errors.New("user is disabled")
)

/*
caches:
	User:$username
	Token:$token -> username
	Tokens:$username (set of tokens)
*/

func userCacheKey(username string) string {
	return "User:" + username
}

func sessionLifespan() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("SESSION_HOUR_LIFESPAN"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

func (user *User) PermissionList() []string {
	return ParsePermissions(user.Permissions)
}

func (input *NewUser) validate(ctx context.Context, businessId string, id int) error {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	if input.Username == "" {
		return utils.NewValidationError("username is required")
	}
	if !input.Role.IsValid() {
		return utils.NewValidationError("invalid role %q", input.Role)
	}
	if input.Role == UserRoleAdmin {
		if isAdmin, _ := utils.GetIsAdminFromContext(ctx); !isAdmin {
			return utils.ErrorPermissionDenied
		}
	}
	if id == 0 && len(input.Password) < 6 {
		return utils.NewValidationError("password must be at least 6 characters")
	}
	if id > 0 && input.Password != "" && len(input.Password) < 6 {
		return utils.NewValidationError("password must be at least 6 characters")
	}

	// username is unique across businesses
	db := config.GetDB()
	var count int64
	dbCtx := db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).Model(&User{}).Where("username = ?", input.Username)
	if id > 0 {
		dbCtx = dbCtx.Where("NOT id = ?", id)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("duplicate username")
	}

	if input.Role == UserRoleChild {
		if input.CompanyId == nil || *input.CompanyId <= 0 {
			return utils.NewValidationError("company is required for child company users")
		}
		if err := utils.ValidateResourceId[Company](ctx, businessId, *input.CompanyId); err != nil {
			return notFoundAsValidation(err, "company")
		}
	} else {
		input.CompanyId = nil
	}

	if input.Role == UserRoleAppUser {
		for _, code := range input.Permissions {
			if !IsKnownPermission(strings.TrimSpace(code)) {
				return utils.NewValidationError("unknown permission %q", code)
			}
		}
	} else {
		input.Permissions = nil
	}

	phone, err := utils.NormalizeOptionalPhone(input.Phone)
	if err != nil {
		return err
	}
	input.Phone = phone
	return nil
}

// cachedUser keeps the password hash, which User never serializes.
type cachedUser struct {
	User
	PasswordHash string `json:"password_hash"`
}

// GetUserByUsername is used by the session middleware before the tenant is known.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var cached cachedUser
	exists, err := config.GetRedisObject(ctx, userCacheKey(username), &cached)
	if err != nil {
		return nil, err
	}
	if exists {
		user := cached.User
		user.Password = cached.PasswordHash
		return &user, nil
	}
	var user User
	db := config.GetDB()
	err = db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Where("username = ?", username).Take(&user).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	cached = cachedUser{User: user, PasswordHash: user.Password}
	if err := config.SetRedisObject(ctx, userCacheKey(username), &cached, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserById resolves the subject of a bearer token.
func GetUserById(ctx context.Context, id int) (*User, error) {
	var user User
	db := config.GetDB()
	if err := db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).First(&user, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	username = strings.ToLower(strings.TrimSpace(username))
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrorInvalidLogin
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrorInvalidLogin
		}
		return nil, err
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, ErrorUserDisabled
	}

	result := LoginInfo{
		Name:        user.Name,
		Role:        user.Role,
		CompanyId:   user.CompanyId,
		Permissions: user.PermissionList(),
	}
	if business, err := getBusinessById(ctx, user.BusinessId); err == nil {
		result.BusinessName = business.Name
		result.Timezone = business.Timezone
	}

	accessToken, err := utils.JwtGenerate(user.ID, string(user.Role), user.BusinessId)
	if err != nil {
		return nil, err
	}
	result.AccessToken = accessToken

	// session token, only when redis is up
	if config.GetRedisDB() != nil {
		token := uuid.NewString()
		if err := config.AddRedisSet(ctx, "Tokens:"+user.Username, token); err != nil {
			return nil, err
		}
		if err := config.SetRedisValue(ctx, "Token:"+token, user.Username, sessionLifespan()); err != nil {
			return nil, err
		}
		result.Token = token
	}
	return &result, nil
}

// Logout destroys the current session token.
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey(ctx, "Token:"+token); err != nil {
		return false, err
	}
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return false, errors.New("user not found")
	}
	if err := config.RemoveRedisSetMember(ctx, "Tokens:"+username, token); err != nil {
		return false, err
	}
	return true, nil
}

func destroyAllSessions(ctx context.Context, username string) error {
	tokens, err := config.GetRedisSetMembers(ctx, "Tokens:"+username)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+2)
	for _, token := range tokens {
		keys = append(keys, "Token:"+token)
	}
	keys = append(keys, "Tokens:"+username, userCacheKey(username))
	return config.RemoveRedisKey(ctx, keys...)
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		BusinessId:  businessId,
		Username:    input.Username,
		Name:        strings.TrimSpace(input.Name),
		Phone:       input.Phone,
		Password:    hashed,
		Role:        input.Role,
		CompanyId:   input.CompanyId,
		Permissions: JoinPermissions(input.Permissions),
		IsActive:    input.IsActive,
	}
	if user.IsActive == nil {
		user.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionCreate, user.ID, "users", nil, user, "created user "+user.Username); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes profile, role and permissions. A non-empty password is re-hashed and ends
// every session of the user.
func UpdateUser(ctx context.Context, id int, input *NewUser) (*User, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	existing, err := utils.FetchModel[User](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"username":    input.Username,
		"name":        strings.TrimSpace(input.Name),
		"phone":       input.Phone,
		"role":        input.Role,
		"company_id":  input.CompanyId,
		"permissions": JoinPermissions(input.Permissions),
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&User{}).Where("business_id = ? AND id = ?", businessId, id).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	var user User
	if err := tx.Where("business_id = ?", businessId).First(&user, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionUpdate, id, "users", existing, user, "updated user "+user.Username); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if input.Password != "" || (user.IsActive != nil && !*user.IsActive) || existing.Username != user.Username {
		if err := destroyAllSessions(ctx, existing.Username); err != nil {
			return nil, err
		}
	} else if err := config.RemoveRedisKey(ctx, userCacheKey(existing.Username)); err != nil {
		return nil, err
	}
	return &user, nil
}

func DeleteUser(ctx context.Context, id int) (*User, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if userId, _ := utils.GetUserIdFromContext(ctx); userId == id {
		return nil, utils.NewValidationError("cannot delete the signed in user")
	}
	result, err := utils.FetchModel[User](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionDelete, id, "users", result, nil, "deleted user "+result.Username); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if err := destroyAllSessions(ctx, result.Username); err != nil {
		return nil, err
	}
	return result, nil
}

func GetUsers(ctx context.Context) ([]*User, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[User](ctx, businessId, "name")
}

// ChangePassword checks the old password of the signed in user.
func ChangePassword(ctx context.Context, oldPassword string, newPassword string) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return errors.New("user id is required")
	}
	if len(newPassword) < 6 {
		return utils.NewValidationError("password must be at least 6 characters")
	}
	user, err := GetUserById(ctx, userId)
	if err != nil {
		return err
	}
	if err := utils.ComparePassword(user.Password, oldPassword); err != nil {
		return utils.NewValidationError("old password is wrong")
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(user).UpdateColumn("password", hashed).Error; err != nil {
		return err
	}
	return destroyAllSessions(ctx, user.Username)
}
