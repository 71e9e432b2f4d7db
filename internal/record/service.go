package record

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CabPortal/CabPortal/internal/common/logger"
	"github.com/CabPortal/CabPortal/internal/events"
	"github.com/CabPortal/CabPortal/internal/session"
	"gorm.io/gorm"
)

// Service 封装六个提交流程（用车预订、失物报告、投诉、反馈、咨询、建议）
// 的核心用例：会话门禁 -> 字段校验 -> 盖时间戳 -> 追加一行 -> 发布事件。
// 表现层只负责收集字段值并传入显式 Session。
type Service struct {
	bookings    *Repo[Booking]
	complaints  *Repo[Complaint]
	feedback    *Repo[Feedback]
	queries     *Repo[Query]
	suggestions *Repo[Suggestion]

	pub events.Publisher
	log logger.Logger
	now func() time.Time
}

func NewService(db *gorm.DB, pub events.Publisher, log logger.Logger) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{
		bookings:    NewRepo[Booking](db),
		complaints:  NewRepo[Complaint](db),
		feedback:    NewRepo[Feedback](db),
		queries:     NewRepo[Query](db),
		suggestions: NewRepo[Suggestion](db),
		pub:         pub,
		log:         log,
		now:         time.Now,
	}
}

// BookingInput 预订提交的入参。
type BookingInput struct {
	Pickup      string
	Dropoff     string
	CarType     CarType
	PaymentType PaymentType
}

// SubmitBooking 提交一条用车预订。
func (s *Service) SubmitBooking(ctx context.Context, sess session.Session, in BookingInput) (*Booking, error) {
	if err := s.gate(sess); err != nil {
		return nil, err
	}

	pickup := strings.TrimSpace(in.Pickup)
	dropoff := strings.TrimSpace(in.Dropoff)
	if pickup == "" {
		return nil, invalid("pickup", "pickup location is required")
	}
	if dropoff == "" {
		return nil, invalid("dropoff", "dropoff location is required")
	}
	if !in.CarType.Valid() {
		return nil, invalid("car_type", fmt.Sprintf("unknown car type %q", string(in.CarType)))
	}
	if !in.PaymentType.Valid() {
		return nil, invalid("payment_type", fmt.Sprintf("unknown payment type %q", string(in.PaymentType)))
	}

	b := &Booking{
		Username:    sess.Username(),
		Pickup:      pickup,
		Dropoff:     dropoff,
		CarType:     in.CarType,
		PaymentType: in.PaymentType,
		BookingDate: s.now(),
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}
	s.publish(ctx, "booking", b.Username, b.BookingID)
	return b, nil
}

// SubmitComplaint 提交投诉或失物报告；两个流程写同一张 complaints 表。
func (s *Service) SubmitComplaint(ctx context.Context, sess session.Session, kind ComplaintKind, text string) (*Complaint, error) {
	if err := s.gate(sess); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, invalid("kind", fmt.Sprintf("unknown complaint kind %q", string(kind)))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("complaint", "complaint text is required")
	}

	c := &Complaint{
		Username:      sess.Username(),
		Kind:          kind,
		Complaint:     text,
		ComplaintDate: s.now(),
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("save complaint: %w", err)
	}
	s.publish(ctx, string(kind), c.Username, c.ComplaintID)
	return c, nil
}

// SubmitFeedback 提交评分与反馈；反馈记录不带时间戳。
func (s *Service) SubmitFeedback(ctx context.Context, sess session.Session, rating int, text string) (*Feedback, error) {
	if err := s.gate(sess); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, invalid("rating", fmt.Sprintf("rating must be between 1 and 5, got %d", rating))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("feedback", "feedback text is required")
	}

	f := &Feedback{
		Username: sess.Username(),
		Rating:   rating,
		Feedback: text,
	}
	if err := s.feedback.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}
	s.publish(ctx, "feedback", f.Username, f.FeedbackID)
	return f, nil
}

// SubmitQuery 提交咨询。
func (s *Service) SubmitQuery(ctx context.Context, sess session.Session, text string) (*Query, error) {
	if err := s.gate(sess); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("query", "query text is required")
	}

	q := &Query{
		Username:  sess.Username(),
		Query:     text,
		QueryDate: s.now(),
	}
	if err := s.queries.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("save query: %w", err)
	}
	s.publish(ctx, "query", q.Username, q.QueryID)
	return q, nil
}

// SubmitSuggestion 提交建议。
func (s *Service) SubmitSuggestion(ctx context.Context, sess session.Session, text string) (*Suggestion, error) {
	if err := s.gate(sess); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("suggestion", "suggestion text is required")
	}

	sg := &Suggestion{
		Username:       sess.Username(),
		Suggestion:     text,
		SuggestionDate: s.now(),
	}
	if err := s.suggestions.Create(ctx, sg); err != nil {
		return nil, fmt.Errorf("save suggestion: %w", err)
	}
	s.publish(ctx, "suggestion", sg.Username, sg.SuggestionID)
	return sg, nil
}

// ListBookings 查询当前会话用户的预订记录。
func (s *Service) ListBookings(ctx context.Context, sess session.Session, offset, limit int) ([]Booking, int64, error) {
	if err := s.gate(sess); err != nil {
		return nil, 0, err
	}
	return s.bookings.ListByUsername(ctx, sess.Username(), offset, limit)
}

// gate 会话门禁：Record Store 的写入只对已认证会话开放。
func (s *Service) gate(sess session.Session) error {
	if s == nil || s.bookings == nil {
		return fmt.Errorf("service not initialized")
	}
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// publish 尽力而为地发布提交事件；失败只记日志，行已落库即提交成功。
func (s *Service) publish(ctx context.Context, kind, username string, recordID int64) {
	ev := events.Event{
		Kind:        kind,
		Username:    username,
		RecordID:    recordID,
		SubmittedAt: s.now(),
	}
	if err := s.pub.Publish(ctx, ev); err != nil && s.log != nil {
		s.log.WithFields(map[string]interface{}{
			"kind":      kind,
			"record_id": recordID,
		}).Warnf("publish submission event failed: %v", err)
	}
}
