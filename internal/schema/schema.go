package schema

import (
	"fmt"

	"github.com/CabPortal/CabPortal/internal/record"
	"github.com/CabPortal/CabPortal/internal/user"
	"gorm.io/gorm"
)

// Migrate 幂等地创建全部六张表（users、bookings、complaints、feedback、
// queries、suggestions）。每次启动都执行；表已存在时为 no-op，不会重建、
// 不会丢已有数据。建表彼此独立，失败时上抛存储错误而不是让进程崩溃。
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	if err := db.AutoMigrate(
		&user.User{},
		&record.Booking{},
		&record.Complaint{},
		&record.Feedback{},
		&record.Query{},
		&record.Suggestion{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
