package model

import "time"

// SystemConfig 系统配置键值对
type SystemConfig struct {
	K         string    `db:"k" json:"k"`
	V         string    `db:"v" json:"v"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
