package user

// User 是 users 表的 GORM 模型。
// username 带唯一索引：并发重复注册时恰好有一方确定性失败，
// 不会出现两行同名用户（原始设计缺口，这里在存储层修复）。
type User struct {
	UserID       int64  `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"size:64;not null"` // sha256 hex digest，固定 64 字符
}

// TableName 指定表名。
func (User) TableName() string {
	return "users"
}
