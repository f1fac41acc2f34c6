package model

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account known to the credential store. Password holds the
// bcrypt hash, never the plaintext.
type User struct {
	ID       int64  `json:"id"`
	Phone    string `json:"phone"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}
