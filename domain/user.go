package domain

// User is a registered account. The password hash never leaves the server.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Credentials is the signup/login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
