package cameras

// Camera is a registered capture device.
type Camera struct {
	CameraID string `gorm:"column:camera_id;primaryKey;size:36" json:"camera_id"`
	Name     string `gorm:"column:name;size:190;not null" json:"name"`
}

// TableName exposes the table backing cameras.
func (Camera) TableName() string {
	return "cameras"
}

// Link is a row in the users-to-cameras join table. A user may act on a
// camera iff a link row exists for the pair.
type Link struct {
	LinkID   int64  `gorm:"column:users_cameras_id;primaryKey;autoIncrement" json:"users_cameras_id"`
	CameraID string `gorm:"column:camera_id;size:36;not null;index" json:"camera_id"`
	UserID   string `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
}

// TableName exposes the table backing the ownership join.
func (Link) TableName() string {
	return "users_cameras"
}

// CameraConfig holds the per-camera polling interval, one row per camera.
type CameraConfig struct {
	CameraID string `gorm:"column:camera_id;primaryKey;size:36" json:"camera_id"`
	Interval int16  `gorm:"column:interval;not null" json:"interval"`
}

// TableName exposes the table backing camera configs.
func (CameraConfig) TableName() string {
	return "configs"
}
