package models

import (
	"context"
	"errors"
	"time"

	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
)

const (
	GroupDepartmentManager   = "Department Manager"
	GroupInstituteLeadership = "Institute Leadership"
	GroupEmployee            = "Employee"
)

// DefaultGroups are provisioned by seed tooling.
var DefaultGroups = []string{GroupDepartmentManager, GroupInstituteLeadership, GroupEmployee}

type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username" binding:"required"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FullName     string    `gorm:"size:255" json:"full_name"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	Groups       []*Group  `gorm:"many2many:user_groups" json:"groups,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Group struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Name string `gorm:"size:150;uniqueIndex;not null" json:"name"`
}

// UserDivision is the per-user scope record: it either pins a user to one
// division or widens visibility via the override flags.
type UserDivision struct {
	ID                 int       `gorm:"primary_key" json:"id"`
	UserId             int       `gorm:"uniqueIndex;not null" json:"user_id"`
	DivisionId         *int      `gorm:"index" json:"division_id"`
	CanViewAll         bool      `gorm:"not null;default:false" json:"can_view_all"`
	CanViewOwnRequests bool      `gorm:"not null;default:false" json:"can_view_own_requests"`
	Division           *Division `gorm:"foreignKey:DivisionId" json:"division,omitempty"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		names = append(names, g.Name)
	}
	return names
}

func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

func GetUser(ctx context.Context, id int) (*User, error) {
	var user User
	db := config.GetDB()
	if err := db.WithContext(ctx).Preload("Groups").First(&user, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	db := config.GetDB()
	if err := db.WithContext(ctx).Preload("Groups").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}

// Authenticate verifies credentials and returns the user on success.
func Authenticate(ctx context.Context, username string, password string) (*User, error) {
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.New("invalid username or password")
	}
	if !user.IsActive {
		return nil, errors.New("account is disabled")
	}
	if err := utils.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, errors.New("invalid username or password")
	}
	return user, nil
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required"`
	FullName string   `json:"full_name"`
	IsStaff  bool     `json:"is_staff"`
	Groups   []string `json:"groups"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, 0); err != nil {
		return nil, errors.New("username already taken")
	}
	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	groups, err := EnsureGroups(ctx, input.Groups)
	if err != nil {
		return nil, err
	}
	user := User{
		Username:     input.Username,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		IsStaff:      input.IsStaff,
		IsActive:     true,
		Groups:       groups,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureGroups fetches the named groups, creating any that do not exist yet.
func EnsureGroups(ctx context.Context, names []string) ([]*Group, error) {
	db := config.GetDB()
	groups := make([]*Group, 0, len(names))
	for _, name := range utils.UniqueSlice(names) {
		var group Group
		if err := db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
			group = Group{Name: name}
			if err := db.WithContext(ctx).Create(&group).Error; err != nil {
				return nil, err
			}
		}
		groups = append(groups, &group)
	}
	return groups, nil
}

type NewUserDivision struct {
	UserId             int  `json:"user_id" binding:"required"`
	DivisionId         *int `json:"division_id"`
	CanViewAll         bool `json:"can_view_all"`
	CanViewOwnRequests bool `json:"can_view_own_requests"`
}

// UpsertUserDivision creates or replaces a user's scope record.
func UpsertUserDivision(ctx context.Context, input *NewUserDivision) (*UserDivision, error) {
	if err := utils.ValidateResourceId[User](ctx, input.UserId); err != nil {
		return nil, errors.New("user not found")
	}
	if input.DivisionId != nil {
		if err := utils.ValidateResourceId[Division](ctx, *input.DivisionId); err != nil {
			return nil, errors.New("division not found")
		}
	}
	db := config.GetDB()
	var scope UserDivision
	err := db.WithContext(ctx).Where("user_id = ?", input.UserId).First(&scope).Error
	if err != nil {
		scope = UserDivision{
			UserId:             input.UserId,
			DivisionId:         input.DivisionId,
			CanViewAll:         input.CanViewAll,
			CanViewOwnRequests: input.CanViewOwnRequests,
		}
		if err := db.WithContext(ctx).Create(&scope).Error; err != nil {
			return nil, err
		}
		return &scope, nil
	}
	if err := db.WithContext(ctx).Model(&scope).Updates(map[string]interface{}{
		"division_id":           input.DivisionId,
		"can_view_all":          input.CanViewAll,
		"can_view_own_requests": input.CanViewOwnRequests,
	}).Error; err != nil {
		return nil, err
	}
	return &scope, nil
}
