package record

import "time"

// CarType 车型枚举（持久化为字符串）。
type CarType string

const (
	CarTypeSedan  CarType = "Sedan"
	CarTypeSUV    CarType = "SUV"
	CarTypeLuxury CarType = "Luxury"
)

// Valid 是否为合法车型。
func (c CarType) Valid() bool {
	switch c {
	case CarTypeSedan, CarTypeSUV, CarTypeLuxury:
		return true
	}
	return false
}

// PaymentType 支付方式枚举。
type PaymentType string

const (
	PaymentTypeCash PaymentType = "Cash"
	PaymentTypeCard PaymentType = "Card"
	PaymentTypeUPI  PaymentType = "UPI"
)

// Valid 是否为合法支付方式。
func (p PaymentType) Valid() bool {
	switch p {
	case PaymentTypeCash, PaymentTypeCard, PaymentTypeUPI:
		return true
	}
	return false
}

// ComplaintKind 投诉记录的来源流程：投诉 / 失物报告。
// 两个流程共用 complaints 表（沿用原始 schema 的合表行为），
// kind 列用于区分来源。
type ComplaintKind string

const (
	KindComplaint ComplaintKind = "complaint"
	KindLostItem  ComplaintKind = "lost_item"
)

// Valid 是否为合法来源。
func (k ComplaintKind) Valid() bool {
	return k == KindComplaint || k == KindLostItem
}

// Booking 是 bookings 表的 GORM 模型。所有记录一次写入后不再变更。
// username 回指 users 表的用户名（仅用于查询，非外键约束）。
type Booking struct {
	BookingID   int64       `gorm:"column:booking_id;primaryKey;autoIncrement"`
	Username    string      `gorm:"index;size:64;not null"`
	Pickup      string      `gorm:"size:255;not null"`
	Dropoff     string      `gorm:"size:255;not null"`
	CarType     CarType     `gorm:"type:varchar(16);not null"`
	PaymentType PaymentType `gorm:"type:varchar(16);not null"`
	BookingDate time.Time   `gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

// Complaint 是 complaints 表的 GORM 模型（投诉与失物报告两个流程共写）。
type Complaint struct {
	ComplaintID   int64         `gorm:"column:complaint_id;primaryKey;autoIncrement"`
	Username      string        `gorm:"index;size:64;not null"`
	Kind          ComplaintKind `gorm:"type:varchar(16);index;not null"`
	Complaint     string        `gorm:"type:text;not null"`
	ComplaintDate time.Time     `gorm:"not null"`
}

func (Complaint) TableName() string { return "complaints" }

// Feedback 是 feedback 表的 GORM 模型。
// 有意不带时间戳列：原始 schema 六张表里唯一没有日期字段的一张，保持不对称。
type Feedback struct {
	FeedbackID int64  `gorm:"column:feedback_id;primaryKey;autoIncrement"`
	Username   string `gorm:"index;size:64;not null"`
	Rating     int    `gorm:"not null"` // 1-5
	Feedback   string `gorm:"type:text;not null"`
}

func (Feedback) TableName() string { return "feedback" }

// Query 是 queries 表的 GORM 模型。
type Query struct {
	QueryID   int64     `gorm:"column:query_id;primaryKey;autoIncrement"`
	Username  string    `gorm:"index;size:64;not null"`
	Query     string    `gorm:"type:text;not null"`
	QueryDate time.Time `gorm:"not null"`
}

func (Query) TableName() string { return "queries" }

// Suggestion 是 suggestions 表的 GORM 模型。
type Suggestion struct {
	SuggestionID   int64     `gorm:"column:suggestion_id;primaryKey;autoIncrement"`
	Username       string    `gorm:"index;size:64;not null"`
	Suggestion     string    `gorm:"type:text;not null"`
	SuggestionDate time.Time `gorm:"not null"`
}

func (Suggestion) TableName() string { return "suggestions" }
