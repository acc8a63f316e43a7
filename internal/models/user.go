package models

// UserRole gates which pages and actions a user sees.
type UserRole string

const (
	RoleStudent           UserRole = "student"
	RoleLecturer          UserRole = "lecturer"
	RolePrincipalLecturer UserRole = "prl"
	RoleProgramLeader     UserRole = "pl"
)

// User describes the authenticated account as returned by the backend.
type User struct {
	ID    ID       `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// Session is the authenticated identity plus bearer credential held
// client-side. Present iff the shell is past the login/register pages.
type Session struct {
	User  User
	Token string
}

// LoginRequest holds credentials for authenticating against the backend.
type LoginRequest struct {
	Email    string   `json:"email" form:"email" validate:"required,email"`
	Password string   `json:"password" form:"password" validate:"required"`
	Role     UserRole `json:"role" form:"role" validate:"required"`
}

// LoginResponse is the backend's successful authentication payload.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// RegisterRequest creates a new account. ConfirmPassword never leaves the
// process; equality and minimum length are checked before any network call.
type RegisterRequest struct {
	Name            string   `json:"name" form:"name" validate:"required"`
	Email           string   `json:"email" form:"email" validate:"required,email"`
	Password        string   `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string   `json:"-" form:"confirmPassword" validate:"required,eqfield=Password"`
	Role            UserRole `json:"role" form:"role" validate:"required"`
}
