package user

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/somahq/soma/core"
)

// Role is the set of capabilities granted to a User.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var AllRoles = []Role{RoleUser, RoleAdmin}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// In reports whether r is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, role := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	Role         Role       `json:"role" bson:"role"`
	IsVerified   bool       `json:"is_verified" bson:"is_verified"`
	Avatar       core.Asset `json:"avatar,omitempty" bson:"avatar,omitempty"`
	PasswordHash []byte     `json:"-" bson:"password_hash"`
	Courses      []string   `json:"courses" bson:"courses"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// OwnsCourse reports whether the user has purchased the given course.
func (u *User) OwnsCourse(courseID string) bool {
	for _, id := range u.Courses {
		if id == courseID {
			return true
		}
	}
	return false
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// ActivateUser carries the activation token and the human-entered code.
type ActivateUser struct {
	ActivationToken string `json:"activation_token" validate:"required"`
	ActivationCode  string `json:"activation_code" validate:"required,len=4,number"`
}

func (au *ActivateUser) Validate(validate *validator.Validate) error {
	au.ActivationToken = core.CleanString(au.ActivationToken)
	au.ActivationCode = core.CleanString(au.ActivationCode)
	return validate.Struct(au)
}

type LoginUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lu *LoginUser) Validate(validate *validator.Validate) error {
	lu.Email = core.CleanString(lu.Email, true /* lower */)
	return validate.Struct(lu)
}

// SocialUser is an externally authenticated profile; no password involved.
type SocialUser struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	AvatarURL string `json:"avatar"`
}

func (su *SocialUser) Validate(validate *validator.Validate) error {
	su.Name = core.CleanString(su.Name)
	su.Email = core.CleanString(su.Email, true /* lower */)
	return validate.Struct(su)
}

// UpdateUserInfo defines what profile information a user may change themselves.
type UpdateUserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (uu *UpdateUserInfo) Validate(validate *validator.Validate) error {
	uu.Name = core.CleanString(uu.Name)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	return validate.Struct(uu)
}

type UpdateUserPassword struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,nefield=OldPassword"`
}

func (up UpdateUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(up)
}

type UpdateUserAvatar struct {
	Avatar string `json:"avatar" validate:"required"`
}

func (ua *UpdateUserAvatar) Validate(validate *validator.Validate) error {
	ua.Avatar = core.CleanString(ua.Avatar)
	return validate.Struct(ua)
}

type UpdateUserRole struct {
	ID   string `json:"id" validate:"required"`
	Role Role   `json:"role" validate:"required,role"`
}

func (ur *UpdateUserRole) Validate(validate *validator.Validate) error {
	ur.ID = core.CleanString(ur.ID)
	return validate.Struct(ur)
}

var (
	roleTag  = "role"
	roleText = "invalid role"
)

// InitValidators registers user-specific validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}
