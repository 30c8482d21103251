package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"venuebook/internal/domain"
	redisrepo "venuebook/internal/repository/redis"
	"venuebook/internal/service"
	"venuebook/internal/service/admission"
	"venuebook/internal/service/analytics"
	"venuebook/internal/service/availability"
	"venuebook/internal/service/lifecycle"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/venues/:id", handleGetVenue(svcs))
	r.GET("/venues/:id/availability", handleGetAvailability(svcs))

	r.POST("/bookings", handleCreateBooking(svcs, idem))
	r.GET("/bookings", handleListBookings(svcs))
	r.GET("/bookings/:id", handleGetBooking(svcs))
	r.PUT("/bookings/:id/status", handleUpdateBookingStatus(svcs))

	r.PUT("/payments/:id/status", handleUpdatePaymentStatus(svcs))

	// Owner / admin API
	// TODO: add auth middleware once the accounts service exposes token introspection
	r.GET("/analytics", handleGetAnalytics(svcs))
	r.GET("/audit", handleGetAuditTrail(svcs))

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Get venue summary
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {object}  domain.Venue
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id} [get]
func handleGetVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		v, err := svcs.Availability.Venue(c.Request.Context(), venueID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, v, "public, max-age=60", true)
	}
}

// @Summary  Get slot availability for a date
// @Param    id    path   int     true  "Venue ID"
// @Param    date  query  string  true  "YYYY-MM-DD"
// @Success  200  {array}   domain.SlotAvailability
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		date, err := parseDateOnly(c.Query("date"))
		if err != nil {
			badRequest(c, "invalid date (YYYY-MM-DD)")
			return
		}
		slots, err := svcs.Availability.SlotsForDate(c.Request.Context(), venueID, date)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s, short because admissions move it
		writeJSONWithCache(c, http.StatusOK, slots, "public, max-age=15", true)
	}
}

// @Summary  Create booking (idempotent)
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateBookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "venue not found"
// @Failure  409 {object} ErrorResponse "slot unavailable / idem in progress"
// @Failure  422 {object} ErrorResponse "validation failed"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		eventDate, err := parseDateOnly(req.EventDate)
		if err != nil {
			badRequest(c, "invalid event_date (YYYY-MM-DD)")
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(req.VenueID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		res, err := svcs.Admission.Admit(c.Request.Context(), admission.Request{
			CustomerID:   req.CustomerID,
			VenueID:      req.VenueID,
			EventDate:    eventDate,
			Slot:         req.Slot,
			EventType:    req.EventType,
			Requirements: req.Requirements,
			Contact: domain.Contact{
				FullName:       req.Contact.FullName,
				Email:          req.Contact.Email,
				PhonePrimary:   req.Contact.PhonePrimary,
				PhoneSecondary: req.Contact.PhoneSecondary,
			},
			FacilityIDs:   req.FacilityIDs,
			PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
			TxRef:         req.TxRef,
			RateKey:       "ip:" + c.ClientIP(),
		})
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, admission.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
				return
			}
			respondErr(c, err)
			return
		}

		resp := CreateBookingResponse{
			BookingID: res.Booking.ID.String(),
			Status:    string(res.Booking.Status),
			Quote:     quoteResponse(res.Quote),
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get booking with payment
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid booking id")
			return
		}
		b, p, err := svcs.Lifecycle.Booking(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, BookingResponse{Booking: b, Payment: p})
	}
}

// @Summary  List bookings
// @Param    venue_id query  int     false "venue filter"
// @Param    status   query  string  false "status filter"
// @Param    from     query  string  false "event date from (YYYY-MM-DD)"
// @Param    to       query  string  false "event date to (YYYY-MM-DD)"
// @Param    limit    query  int     false "page size"
// @Param    offset   query  int     false "offset"
// @Success  200 {array} domain.Booking
// @Router   /bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter domain.BookingFilter

		if s := c.Query("venue_id"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				badRequest(c, "invalid venue_id")
				return
			}
			filter.VenueID = &v
		}
		if s := c.Query("status"); s != "" {
			st := domain.BookingStatus(s)
			filter.Status = &st
		}
		if s := c.Query("from"); s != "" {
			t, err := parseDateOnly(s)
			if err != nil {
				badRequest(c, "invalid from (YYYY-MM-DD)")
				return
			}
			filter.From = &t
		}
		if s := c.Query("to"); s != "" {
			t, err := parseDateOnly(s)
			if err != nil {
				badRequest(c, "invalid to (YYYY-MM-DD)")
				return
			}
			filter.To = &t
		}
		filter.Limit = parseIntDefault(c.Query("limit"), 50)
		filter.Offset = parseIntDefault(c.Query("offset"), 0)

		list, err := svcs.Lifecycle.Bookings(c.Request.Context(), filter)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Update booking status
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Param    req body  UpdateBookingStatusRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "illegal transition"
// @Router   /bookings/{id}/status [put]
func handleUpdateBookingStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid booking id")
			return
		}
		var req UpdateBookingStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		err = svcs.Lifecycle.TransitionBooking(
			c.Request.Context(),
			id,
			domain.BookingStatus(req.Status),
			req.ActorID,
			req.Reason,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Update payment status
// @Param    id  path  string  true  "Payment ID (uuid)"
// @Param    req body  UpdatePaymentStatusRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "illegal transition"
// @Router   /payments/{id}/status [put]
func handleUpdatePaymentStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid payment id")
			return
		}
		var req UpdatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		err = svcs.Lifecycle.TransitionPayment(
			c.Request.Context(),
			id,
			domain.PaymentStatus(req.Status),
			req.ActorID,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Revenue and booking report
// @Param    scope    query  string  false "venue | owner | platform (default)"
// @Param    venue_id query  int     false "required when scope=venue"
// @Param    owner_id query  int     false "required when scope=owner"
// @Param    month    query  string  false "YYYY-MM"
// @Param    year     query  int     false "YYYY"
// @Param    from     query  string  false "YYYY-MM-DD, with to"
// @Param    to       query  string  false "YYYY-MM-DD, with from"
// @Success  200 {object} domain.Report
// @Failure  503 {object} ErrorResponse "snapshot unavailable"
// @Router   /analytics [get]
func handleGetAnalytics(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := parseScope(c)
		if !ok {
			return
		}
		window, ok := parseWindow(c)
		if !ok {
			return
		}
		report, err := svcs.Analytics.Report(c.Request.Context(), scope, window)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 30s, reports are informational
		writeJSONWithCache(c, http.StatusOK, report, "public, max-age=30", true)
	}
}

// @Summary  Audit trail
// @Param    limit  query  int  false "page size"
// @Param    offset query  int  false "offset"
// @Success  200 {array} domain.AuditEntry
// @Router   /audit [get]
func handleGetAuditTrail(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		entries, err := svcs.Audit.Trail(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// --- Helpers ---

func parseScope(c *gin.Context) (domain.Scope, bool) {
	switch c.DefaultQuery("scope", "platform") {
	case "platform":
		return domain.Scope{Kind: domain.ScopePlatform}, true
	case "venue":
		id, err := strconv.ParseInt(c.Query("venue_id"), 10, 64)
		if err != nil {
			badRequest(c, "scope=venue requires venue_id")
			return domain.Scope{}, false
		}
		return domain.Scope{Kind: domain.ScopeVenue, VenueID: id}, true
	case "owner":
		id, err := strconv.ParseInt(c.Query("owner_id"), 10, 64)
		if err != nil {
			badRequest(c, "scope=owner requires owner_id")
			return domain.Scope{}, false
		}
		return domain.Scope{Kind: domain.ScopeOwner, OwnerID: id}, true
	default:
		badRequest(c, "invalid scope")
		return domain.Scope{}, false
	}
}

func parseWindow(c *gin.Context) (domain.Window, bool) {
	if m := c.Query("month"); m != "" {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			badRequest(c, "invalid month (YYYY-MM)")
			return domain.Window{}, false
		}
		return domain.MonthWindow(t.Year(), t.Month()), true
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			badRequest(c, "invalid year")
			return domain.Window{}, false
		}
		return domain.YearWindow(year), true
	}
	if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
		f, err := parseDateOnly(from)
		if err != nil {
			badRequest(c, "invalid from (YYYY-MM-DD)")
			return domain.Window{}, false
		}
		t, err := parseDateOnly(to)
		if err != nil {
			badRequest(c, "invalid to (YYYY-MM-DD)")
			return domain.Window{}, false
		}
		return domain.Window{From: f, To: t}, true
	}

	now := time.Now().UTC()
	return domain.MonthWindow(now.Year(), now.Month()), true
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var validation *admission.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: validation.Error()})
		return
	}

	var transition *domain.StateTransitionError
	if errors.As(err, &transition) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: transition.Error()})
		return
	}

	switch {
	// availability service
	case errors.Is(err, availability.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
		return
	// admission service
	case errors.Is(err, admission.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
		return
	case errors.Is(err, admission.ErrVenueInactive):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "venue is not accepting bookings"})
		return
	case errors.Is(err, admission.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "slot no longer available"})
		return
	// lifecycle service
	case errors.Is(err, lifecycle.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, lifecycle.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "payment not found"})
		return
	case errors.Is(err, lifecycle.ErrConcurrentChange):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "state changed concurrently"})
		return
	// analytics service
	case errors.Is(err, analytics.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "report unavailable"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
