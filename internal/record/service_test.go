package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CabPortal/CabPortal/internal/common/db"
	"github.com/CabPortal/CabPortal/internal/events"
	"github.com/CabPortal/CabPortal/internal/session"
	"gorm.io/gorm"
)

// capturePublisher 记录发布过的事件，供断言。
type capturePublisher struct {
	events []events.Event
}

func (c *capturePublisher) Publish(_ context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *gorm.DB, *capturePublisher) {
	t.Helper()
	gdb, err := db.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&Booking{}, &Complaint{}, &Feedback{}, &Query{}, &Suggestion{}); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}
	pub := &capturePublisher{}
	return NewService(gdb, pub, nil), gdb, pub
}

func aliceSession() session.Session {
	return session.NewSession("alice", time.Now().Add(time.Hour))
}

func TestSubmitBooking(t *testing.T) {
	svc, gdb, pub := newTestService(t)
	ctx := context.Background()

	before := time.Now()
	b, err := svc.SubmitBooking(ctx, aliceSession(), BookingInput{
		Pickup:      "  Airport ",
		Dropoff:     "Downtown",
		CarType:     CarTypeSedan,
		PaymentType: PaymentTypeCash,
	})
	if err != nil {
		t.Fatalf("submit booking: %v", err)
	}
	if b.BookingID == 0 {
		t.Fatalf("booking id not assigned")
	}
	if b.Username != "alice" {
		t.Fatalf("booking username = %q, want alice", b.Username)
	}
	if b.Pickup != "Airport" {
		t.Fatalf("pickup not trimmed: %q", b.Pickup)
	}
	if b.BookingDate.Before(before) || b.BookingDate.After(time.Now()) {
		t.Fatalf("booking date outside submission window: %v", b.BookingDate)
	}

	var count int64
	if err := gdb.Model(&Booking{}).Count(&count).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 booking row, got %d", count)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != "booking" {
		t.Fatalf("expected one booking event, got %+v", pub.events)
	}
}

func TestSubmitBookingValidation(t *testing.T) {
	svc, gdb, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   BookingInput
	}{
		{"empty pickup", BookingInput{Pickup: "  ", Dropoff: "B", CarType: CarTypeSedan, PaymentType: PaymentTypeCash}},
		{"empty dropoff", BookingInput{Pickup: "A", Dropoff: "", CarType: CarTypeSedan, PaymentType: PaymentTypeCash}},
		{"bad car type", BookingInput{Pickup: "A", Dropoff: "B", CarType: "Boat", PaymentType: PaymentTypeCash}},
		{"bad payment type", BookingInput{Pickup: "A", Dropoff: "B", CarType: CarTypeSUV, PaymentType: "Barter"}},
	}
	for _, c := range cases {
		if _, err := svc.SubmitBooking(ctx, aliceSession(), c.in); !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", c.name, err)
		}
	}

	// 校验失败的提交不落任何行
	var count int64
	if err := gdb.Model(&Booking{}).Count(&count).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected submissions left %d rows", count)
	}
}

func TestSubmitRequiresAuthenticatedSession(t *testing.T) {
	svc, gdb, _ := newTestService(t)
	ctx := context.Background()
	in := BookingInput{Pickup: "A", Dropoff: "B", CarType: CarTypeSedan, PaymentType: PaymentTypeCash}

	if _, err := svc.SubmitBooking(ctx, session.Anonymous, in); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("anonymous booking: expected ErrNotAuthenticated, got %v", err)
	}

	expired := session.NewSession("alice", time.Now().Add(-time.Minute))
	if _, err := svc.SubmitQuery(ctx, expired, "anything"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expired session query: expected ErrNotAuthenticated, got %v", err)
	}

	var count int64
	if err := gdb.Model(&Booking{}).Count(&count).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if count != 0 {
		t.Fatalf("unauthenticated submission persisted %d rows", count)
	}
}

func TestComplaintAndLostItemShareTable(t *testing.T) {
	svc, gdb, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SubmitComplaint(ctx, aliceSession(), KindComplaint, "driver was late"); err != nil {
		t.Fatalf("submit complaint: %v", err)
	}
	if _, err := svc.SubmitComplaint(ctx, aliceSession(), KindLostItem, "left umbrella in cab"); err != nil {
		t.Fatalf("submit lost item: %v", err)
	}

	var rows []Complaint
	if err := gdb.Order("complaint_id").Find(&rows).Error; err != nil {
		t.Fatalf("load complaints: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 complaint rows, got %d", len(rows))
	}
	if rows[0].Kind != KindComplaint || rows[1].Kind != KindLostItem {
		t.Fatalf("kinds = %q, %q", rows[0].Kind, rows[1].Kind)
	}

	if _, err := svc.SubmitComplaint(ctx, aliceSession(), "refund", "x"); !IsValidation(err) {
		t.Fatalf("unknown kind: expected validation error, got %v", err)
	}
}

func TestSubmitFeedback(t *testing.T) {
	svc, gdb, _ := newTestService(t)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.SubmitFeedback(ctx, aliceSession(), rating, "text"); !IsValidation(err) {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
	if _, err := svc.SubmitFeedback(ctx, aliceSession(), 3, "   "); !IsValidation(err) {
		t.Fatalf("blank feedback text: expected validation error, got %v", err)
	}

	f, err := svc.SubmitFeedback(ctx, aliceSession(), 5, "great ride")
	if err != nil {
		t.Fatalf("submit feedback: %v", err)
	}
	if f.Rating != 5 || f.Feedback != "great ride" {
		t.Fatalf("unexpected feedback row: %+v", f)
	}

	var count int64
	if err := gdb.Model(&Feedback{}).Count(&count).Error; err != nil {
		t.Fatalf("count feedback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 feedback row, got %d", count)
	}
}

func TestSubmitQueryAndSuggestion(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	q, err := svc.SubmitQuery(ctx, aliceSession(), "do you serve the airport?")
	if err != nil {
		t.Fatalf("submit query: %v", err)
	}
	if q.QueryID == 0 || q.QueryDate.IsZero() {
		t.Fatalf("query row incomplete: %+v", q)
	}

	sg, err := svc.SubmitSuggestion(ctx, aliceSession(), "add night service")
	if err != nil {
		t.Fatalf("submit suggestion: %v", err)
	}
	if sg.SuggestionID == 0 {
		t.Fatalf("suggestion id not assigned")
	}

	if _, err := svc.SubmitQuery(ctx, aliceSession(), ""); !IsValidation(err) {
		t.Fatalf("empty query: expected validation error, got %v", err)
	}
	if _, err := svc.SubmitSuggestion(ctx, aliceSession(), "  "); !IsValidation(err) {
		t.Fatalf("blank suggestion: expected validation error, got %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
}

func TestListBookings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	bob := session.NewSession("bob", time.Now().Add(time.Hour))
	in := BookingInput{Pickup: "A", Dropoff: "B", CarType: CarTypeLuxury, PaymentType: PaymentTypeCard}
	for i := 0; i < 3; i++ {
		if _, err := svc.SubmitBooking(ctx, aliceSession(), in); err != nil {
			t.Fatalf("alice booking %d: %v", i, err)
		}
	}
	if _, err := svc.SubmitBooking(ctx, bob, in); err != nil {
		t.Fatalf("bob booking: %v", err)
	}

	rows, total, err := svc.ListBookings(ctx, aliceSession(), 0, 10)
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("alice bookings: total=%d len=%d, want 3", total, len(rows))
	}
	for _, r := range rows {
		if r.Username != "alice" {
			t.Fatalf("listed row belongs to another user: %+v", r)
		}
	}

	page, total, err := svc.ListBookings(ctx, aliceSession(), 2, 2)
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Fatalf("page: total=%d len=%d, want total=3 len=1", total, len(page))
	}
}
