package accounts

// User is a registered account. The password is stored only as a bcrypt hash.
type User struct {
	UserID       string `gorm:"column:user_id;primaryKey;size:36" json:"user_id"`
	Username     string `gorm:"column:username;uniqueIndex;size:190;not null" json:"username"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
}

// TableName exposes the table backing user accounts.
func (User) TableName() string {
	return "users"
}

// UserInfo is the public projection of a User returned by the API.
type UserInfo struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Session pairs the public user record with a freshly issued token.
type Session struct {
	User  UserInfo `json:"user_info"`
	Token string   `json:"user_token"`
}
