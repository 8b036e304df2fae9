package model

import "time"

// 用户角色
const (
	RoleUser  = "user"
	RoleCS    = "cs"
	RoleAdmin = "admin"
)

// User 用户
type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	Nickname  string    `db:"nickname" json:"nickname"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsStaff 是否为平台人员（管理员或客服）
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleCS
}
