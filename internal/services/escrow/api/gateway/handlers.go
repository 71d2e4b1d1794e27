package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	escrowv1 "github.com/gigmate/gigmate/api/escrow/v1"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/metadata"
)

// PaymentCapturedEvent is the only webhook event that moves a booking.
const PaymentCapturedEvent = "payment.captured"

// Handler adapts HTTP requests onto the escrow service.
type Handler struct {
	svc escrowv1.BookingEscrowServiceServer
}

// NewHandler wraps svc. The router invokes it in-process, so requests skip
// the gRPC interceptors and carry their deadline from the router.
func NewHandler(svc escrowv1.BookingEscrowServiceServer) *Handler {
	return &Handler{svc: svc}
}

type createBookingBody struct {
	VenueID    string     `json:"venue_id"`
	MusicianID string     `json:"musician_id"`
	AgreedRate string     `json:"agreed_rate"`
	Currency   string     `json:"currency"`
	EventDate  *time.Time `json:"event_date"`
}

type partyBody struct {
	Party string `json:"party"`
}

type disputeBody struct {
	Party  string `json:"party"`
	Reason string `json:"reason"`
}

type ratingBody struct {
	Party   string `json:"party"`
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

type paymentWebhookBody struct {
	Event            string `json:"event"`
	BookingID        string `json:"booking_id"`
	PaymentReference string `json:"payment_reference"`
}

// POST /v1/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	var in createBookingBody
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.svc.CreateBooking(rpcContext(c), &escrowv1.CreateBookingRequest{
		VenueID:    in.VenueID,
		MusicianID: in.MusicianID,
		AgreedRate: in.AgreedRate,
		Currency:   in.Currency,
		EventDate:  in.EventDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /v1/bookings?filter=...&page_size=...&page_token=...
func (h *Handler) ListBookings(c *gin.Context) {
	var pageSize int64
	if raw := c.Query("page_size"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			writeBadRequest(c, "page_size must be an integer")
			return
		}
		pageSize = parsed
	}
	res, err := h.svc.ListBookings(rpcContext(c), &escrowv1.ListBookingsRequest{
		Filter:    c.Query("filter"),
		PageSize:  int32(pageSize),
		PageToken: c.Query("page_token"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /v1/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	res, err := h.svc.GetBooking(rpcContext(c), &escrowv1.GetBookingRequest{BookingID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /v1/bookings/:id/accept
func (h *Handler) AcceptBooking(c *gin.Context) {
	res, err := h.svc.AcceptBooking(rpcContext(c), &escrowv1.AcceptBookingRequest{BookingID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /v1/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	var in partyBody
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.svc.CancelBooking(rpcContext(c), &escrowv1.CancelBookingRequest{
		BookingID: c.Param("id"),
		Party:     in.Party,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /v1/bookings/:id/confirm
func (h *Handler) ConfirmBooking(c *gin.Context) {
	var in partyBody
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.svc.ConfirmBooking(rpcContext(c), &escrowv1.ConfirmBookingRequest{
		BookingID: c.Param("id"),
		Party:     in.Party,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /v1/bookings/:id/disputes
func (h *Handler) OpenDispute(c *gin.Context) {
	var in disputeBody
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.svc.OpenDispute(rpcContext(c), &escrowv1.OpenDisputeRequest{
		BookingID: c.Param("id"),
		Party:     in.Party,
		Reason:    in.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /v1/bookings/:id/ratings
func (h *Handler) SubmitRating(c *gin.Context) {
	var in ratingBody
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.svc.SubmitRating(rpcContext(c), &escrowv1.SubmitRatingRequest{
		BookingID: c.Param("id"),
		Party:     in.Party,
		Stars:     in.Stars,
		Comment:   in.Comment,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /v1/fees?agreed_rate=500.00&mediation=true
func (h *Handler) ComputeFees(c *gin.Context) {
	mediation := false
	if raw := c.Query("mediation"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(c, "mediation must be true or false")
			return
		}
		mediation = parsed
	}
	res, err := h.svc.ComputeFees(rpcContext(c), &escrowv1.ComputeFeesRequest{
		AgreedRate:        c.Query("agreed_rate"),
		MediationRequired: mediation,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /v1/webhooks/payments
//
// Events other than payment.captured are acknowledged and ignored so the
// payment collaborator stops retrying them.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	var in paymentWebhookBody
	if !bindJSON(c, &in) {
		return
	}
	if in.Event != PaymentCapturedEvent {
		c.JSON(http.StatusAccepted, gin.H{"ignored": in.Event})
		return
	}
	res, err := h.svc.MarkEscrowed(rpcContext(c), &escrowv1.MarkEscrowedRequest{
		BookingID:        in.BookingID,
		PaymentReference: in.PaymentReference,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeBadRequest(c, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// rpcContext carries the caller's Accept-Language into the metadata the
// service reads when localizing error messages.
func rpcContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if lang := c.GetHeader("Accept-Language"); lang != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("accept-language", lang))
	}
	return ctx
}
