package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/CabPortal/CabPortal/internal/common/logger"
	"github.com/CabPortal/CabPortal/internal/record"
	"github.com/CabPortal/CabPortal/internal/session"
	"github.com/CabPortal/CabPortal/internal/user"
	"github.com/labstack/echo/v4"
)

// Handler 门户 HTTP 表现层：收集校验过的字段值并调用核心服务，
// 自己不碰存储，也不读任何环境态。
type Handler struct {
	users    *user.Service
	records  *record.Service
	sessions *session.Manager
	log      logger.Logger
}

func NewHandler(users *user.Service, records *record.Service, sessions *session.Manager, log logger.Logger) *Handler {
	return &Handler{users: users, records: records, sessions: sessions, log: log}
}

// Register 注册全部路由。
func (h *Handler) Register(e *echo.Echo) error {
	e.POST("/api/register", h.register)
	e.POST("/api/login", h.login, LoginRateLimiter())

	authed := e.Group("/api", RequireSession(h.sessions))
	authed.POST("/logout", h.logout)
	authed.POST("/bookings", h.submitBooking)
	authed.GET("/bookings", h.listBookings)
	authed.POST("/complaints", h.submitComplaint)
	authed.POST("/lost-items", h.submitLostItem)
	authed.POST("/feedback", h.submitFeedback)
	authed.POST("/queries", h.submitQuery)
	authed.POST("/suggestions", h.submitSuggestion)
	return nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}

	if err := h.users.Register(c.Request().Context(), req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, user.ErrEmptyCredentials):
			return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		case errors.Is(err, user.ErrUsernameTaken):
			return c.JSON(http.StatusConflict, errorBody("username already taken"))
		default:
			return h.storageError(c, err)
		}
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "user registered successfully"})
}

type loginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}

	ctx := c.Request().Context()
	u, err := h.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			// 统一话术，不暴露“用户不存在”还是“密码错误”
			return c.JSON(http.StatusUnauthorized, errorBody("invalid username or password"))
		}
		return h.storageError(c, err)
	}

	token, sess, err := h.sessions.Issue(ctx, u.Username)
	if err != nil {
		return h.storageError(c, err)
	}
	return c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		Username:  sess.Username(),
		ExpiresAt: sess.ExpiresAt(),
	})
}

func (h *Handler) logout(c echo.Context) error {
	if err := h.sessions.Revoke(c.Request().Context(), currentToken(c)); err != nil {
		return h.storageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type bookingRequest struct {
	Pickup      string `json:"pickup"`
	Dropoff     string `json:"dropoff"`
	CarType     string `json:"car_type"`
	PaymentType string `json:"payment_type"`
}

type bookingResponse struct {
	BookingID   int64     `json:"booking_id"`
	Username    string    `json:"username"`
	Pickup      string    `json:"pickup"`
	Dropoff     string    `json:"dropoff"`
	CarType     string    `json:"car_type"`
	PaymentType string    `json:"payment_type"`
	BookingDate time.Time `json:"booking_date"`
}

func toBookingResponse(b *record.Booking) bookingResponse {
	return bookingResponse{
		BookingID:   b.BookingID,
		Username:    b.Username,
		Pickup:      b.Pickup,
		Dropoff:     b.Dropoff,
		CarType:     string(b.CarType),
		PaymentType: string(b.PaymentType),
		BookingDate: b.BookingDate,
	}
}

func (h *Handler) submitBooking(c echo.Context) error {
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}

	b, err := h.records.SubmitBooking(c.Request().Context(), CurrentSession(c), record.BookingInput{
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		CarType:     record.CarType(req.CarType),
		PaymentType: record.PaymentType(req.PaymentType),
	})
	if err != nil {
		return h.recordError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *Handler) listBookings(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	bookings, total, err := h.records.ListBookings(c.Request().Context(), CurrentSession(c), offset, limit)
	if err != nil {
		return h.recordError(c, err)
	}
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"bookings": out,
		"total":    total,
	})
}

type textRequest struct {
	Complaint   string `json:"complaint"`
	Description string `json:"description"`
	Query       string `json:"query"`
	Suggestion  string `json:"suggestion"`
}

func (h *Handler) submitComplaint(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}
	rec, err := h.records.SubmitComplaint(c.Request().Context(), CurrentSession(c), record.KindComplaint, req.Complaint)
	if err != nil {
		return h.recordError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"complaint_id": rec.ComplaintID,
		"message":      "complaint lodged successfully",
	})
}

// submitLostItem 失物报告与投诉共写 complaints 表，kind 区分来源。
func (h *Handler) submitLostItem(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}
	rec, err := h.records.SubmitComplaint(c.Request().Context(), CurrentSession(c), record.KindLostItem, req.Description)
	if err != nil {
		return h.recordError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"complaint_id": rec.ComplaintID,
		"message":      "lost item report submitted",
	})
}

type feedbackRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

func (h *Handler) submitFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}
	rec, err := h.records.SubmitFeedback(c.Request().Context(), CurrentSession(c), req.Rating, req.Feedback)
	if err != nil {
		return h.recordError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"feedback_id": rec.FeedbackID,
		"message":     "feedback submitted successfully",
	})
}

func (h *Handler) submitQuery(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}
	rec, err := h.records.SubmitQuery(c.Request().Context(), CurrentSession(c), req.Query)
	if err != nil {
		return h.recordError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"query_id": rec.QueryID,
		"message":  "query submitted successfully",
	})
}

func (h *Handler) submitSuggestion(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}
	rec, err := h.records.SubmitSuggestion(c.Request().Context(), CurrentSession(c), req.Suggestion)
	if err != nil {
		return h.recordError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"suggestion_id": rec.SuggestionID,
		"message":       "suggestion submitted successfully",
	})
}

// recordError 把核心错误分类映射成 HTTP 状态码。
func (h *Handler) recordError(c echo.Context, err error) error {
	switch {
	case record.IsValidation(err):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, record.ErrNotAuthenticated):
		return c.JSON(http.StatusUnauthorized, errorBody("login required"))
	default:
		return h.storageError(c, err)
	}
}

// storageError 存储层错误：带上下文记日志，向调用方报可展示的错误信息，绝不吞掉。
func (h *Handler) storageError(c echo.Context, err error) error {
	if h.log != nil {
		h.log.WithFields(map[string]interface{}{
			"path": c.Request().URL.Path,
		}).Errorf("storage error: %v", err)
	}
	return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
}
