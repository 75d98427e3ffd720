package server

import "time"

type Status string

const (
	StatusActive    Status = "Active"
	StatusExpired   Status = "Expired"
	StatusSuspended Status = "Suspended"
)

const (
	LicenseStandard = "Standard License"
	LicenseTrial    = "Trial period"
)

// Server is one registered deployment: identity, bearer secret, license period
// and last reported usage. RequestsToday and DetectionsTotal are stored but not
// yet maintained; enforcement is a reserved extension.
type Server struct {
	ID              string    `gorm:"column:id;primaryKey" json:"id"`
	Name            string    `gorm:"column:name;not null" json:"name"`
	APIKey          string    `gorm:"column:api_key;uniqueIndex;not null" json:"api_key"`
	LicenseType     string    `gorm:"column:license_type" json:"license_type"`
	ExpirationDate  time.Time `gorm:"column:expiration_date" json:"expiration_date"`
	Status          Status    `gorm:"column:status" json:"status"`
	OnlineCount     int       `gorm:"column:online_count;default:0" json:"online_count"`
	LimitCount      int       `gorm:"column:limit_count;default:100" json:"limit_count"`
	RequestsToday   int       `gorm:"column:requests_today;default:0" json:"requests_today"`
	DetectionsTotal int       `gorm:"column:detections_total;default:0" json:"detections_total"`
}

func (Server) TableName() string {
	return "servers"
}
