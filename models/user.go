package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Email         string          `gorm:"size:100;not null;unique" json:"email" binding:"required"`
	FirstName     string          `gorm:"size:100" json:"first_name"`
	LastName      string          `gorm:"size:100" json:"last_name"`
	Password      string          `gorm:"size:255;not null" json:"-"`
	Role          UserRole        `gorm:"type:enum('admin','user');default:user" json:"role"`
	IsActive      *bool           `gorm:"not null" json:"is_active"`
	Birthday      *time.Time      `json:"birthday"`
	SlackId       *string         `gorm:"size:50" json:"slack_id"`
	SlackUsername *string         `gorm:"size:100" json:"slack_username"`
	Balance       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`

	// OAuth identity fields. The exchange itself happens elsewhere; these
	// columns just record which external identity a user arrived with.
	Provider    *string `gorm:"size:50" json:"provider"`
	Uid         *string `gorm:"size:100" json:"uid"`
	IdvVerified *bool   `json:"idv_verified"`

	// External sync bookkeeping. AirtableId is the remote row id once the
	// record has been pushed at least once; SyncedAt is the last attempt mark.
	AirtableId *string    `gorm:"size:32;index" json:"airtable_id"`
	SyncedAt   *time.Time `gorm:"index" json:"synced_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Email     string     `json:"email" binding:"required"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Password  string     `json:"password" binding:"required"`
	Birthday  *time.Time `json:"birthday"`
	SlackId   *string    `json:"slack_id"`
}

func (user *User) FullName() string {
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

// Age in whole years as of now; nil birthday means unknown.
func (user *User) Age() *int {
	if user.Birthday == nil {
		return nil
	}
	now := time.Now()
	years := now.Year() - user.Birthday.Year()
	anniversary := user.Birthday.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return &years
}

func (result *User) PrepareGive() {
	result.Password = ""
}

func Login(ctx context.Context, email string, password string) (string, *User, error) {
	db := config.GetDB()

	user := User{}
	err := db.WithContext(ctx).Model(&User{}).Where("email = ?", strings.ToLower(email)).Take(&user).Error
	if err != nil {
		return "", nil, errors.New("invalid email or password")
	}

	err = utils.ComparePassword(user.Password, password)
	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return "", nil, errors.New("invalid email or password")
	}

	if user.IsActive != nil && !*user.IsActive {
		return "", nil, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return "", nil, err
	}

	user.PrepareGive()
	return token, &user, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()
	var count int64

	if !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email address")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate email")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:     email,
		FirstName: html.EscapeString(strings.TrimSpace(input.FirstName)),
		LastName:  html.EscapeString(strings.TrimSpace(input.LastName)),
		Password:  string(hashedPassword),
		Role:      UserRoleUser,
		IsActive:  utils.NewTrue(),
		Birthday:  input.Birthday,
		SlackId:   input.SlackId,
		Balance:   decimal.Zero,
	}

	err = db.WithContext(ctx).Create(&user).Error
	if err != nil {
		if isDuplicateKeyErr(err) {
			return nil, errors.New("duplicate email")
		}
		return nil, err
	}
	user.PrepareGive()
	return &user, nil
}

// The count pre-check above races with concurrent registrations; the unique
// index is the backstop.
func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

func GetUser(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	var result User

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	result.PrepareGive()
	return &result, nil
}

func GetAllUsers(ctx context.Context) ([]*User, error) {
	db := config.GetDB()
	var results []*User

	if err := db.WithContext(ctx).Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	for _, u := range results {
		u.PrepareGive()
	}
	return results, nil
}
