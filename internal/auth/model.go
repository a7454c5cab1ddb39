package auth

// UserToken is an opaque credential issued on registration and login. A user
// may hold any number of concurrently valid tokens; deleting the row is the
// only form of revocation.
type UserToken struct {
	Token  string `gorm:"column:token;primaryKey;size:36" json:"token"`
	UserID string `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
}

// TableName exposes the table backing user tokens.
func (UserToken) TableName() string {
	return "user_tokens"
}

// CameraToken is the device-side credential issued once per camera at
// creation time. It authorizes uploads and config reads for that one camera.
type CameraToken struct {
	CameraToken string `gorm:"column:camera_token;primaryKey;size:36" json:"camera_token"`
	CameraID    string `gorm:"column:camera_id;size:36;not null;index" json:"camera_id"`
}

// TableName exposes the table backing camera tokens.
func (CameraToken) TableName() string {
	return "camera_tokens"
}
