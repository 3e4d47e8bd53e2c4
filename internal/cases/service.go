// Package cases records the outcome of a booking against the lawyer who
// handled it.
package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalease/backend/internal/metrics"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/apperr"
	"github.com/legalease/backend/pkg/logger"
)

// CounterPolicy decides whether repeating a status update counts again.
type CounterPolicy string

const (
	// CountEveryUpdate increments the lawyer's counters on every call, even
	// when the booking already had the requested status.
	CountEveryUpdate CounterPolicy = "count_every_update"
	// CountOnce skips the increments when the status is unchanged.
	CountOnce CounterPolicy = "count_once"
)

func ParseCounterPolicy(s string) (CounterPolicy, error) {
	switch p := CounterPolicy(strings.TrimSpace(s)); p {
	case "":
		return CountEveryUpdate, nil
	case CountEveryUpdate, CountOnce:
		return p, nil
	default:
		return "", fmt.Errorf("unknown counter policy %q", s)
	}
}

type Service struct {
	store  storage.Store
	policy CounterPolicy
	now    func() time.Time
}

func NewService(store storage.Store, policy CounterPolicy) *Service {
	if policy == "" {
		policy = CountEveryUpdate
	}
	return &Service{store: store, policy: policy, now: time.Now}
}

type UpdateResult struct {
	BookingID string `json:"bookingId"`
	LawyerID  string `json:"lawyerId"`
	Status    string `json:"status"`
	Counted   bool   `json:"counted"`
}

// UpdateBookingStatus sets the booking status and bumps the lawyer's case
// counters. callerID must be non-empty; the booking must exist and name an
// existing lawyer.
func (s *Service) UpdateBookingStatus(ctx context.Context, callerID, bookingID, status string) (*UpdateResult, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, apperr.Unauthenticated("User must be logged in.")
	}

	bookingID = strings.TrimSpace(bookingID)
	status = strings.TrimSpace(status)
	if bookingID == "" || status == "" {
		return nil, apperr.InvalidArgument("bookingId and status are required.")
	}

	var (
		booking models.Booking
		counted bool
	)
	// The status read, the status write and the counters commit as one unit.
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		doc, found, err := tx.Get(ctx, storage.CollectionBookings, bookingID)
		if err != nil {
			return apperr.Internal("Failed to read booking.", err)
		}
		if !found {
			return apperr.NotFound("Booking not found.")
		}
		booking = models.BookingFromDocument(doc)

		if booking.LawyerID == "" {
			return apperr.FailedPrecondition("Booking has no lawyer assigned.")
		}

		_, found, err = tx.Get(ctx, storage.CollectionLawyers, booking.LawyerID)
		if err != nil {
			return apperr.Internal("Failed to read lawyer.", err)
		}
		if !found {
			return apperr.NotFound("Lawyer not found.")
		}

		counted = s.policy == CountEveryUpdate || booking.Status != status

		if err := tx.Update(ctx, storage.CollectionBookings, bookingID, storage.Fields{"status": status}); err != nil {
			return storeError("Failed to update booking.", err)
		}

		if !counted {
			return nil
		}
		if err := tx.Increment(ctx, storage.CollectionLawyers, booking.LawyerID, counterDeltas(status)); err != nil {
			return storeError("Failed to update lawyer statistics.", err)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			logger.Error("Booking status update failed", zap.String("booking_id", bookingID), zap.Error(err))
		}
		return nil, asAppError(err)
	}

	metrics.CaseUpdates.WithLabelValues(statusLabel(status), fmt.Sprint(counted)).Inc()

	logger.Info("Booking status updated",
		zap.String("booking_id", bookingID),
		zap.String("lawyer_id", booking.LawyerID),
		zap.String("status", status),
		zap.String("previous_status", booking.Status),
		zap.Bool("counted", counted),
		zap.String("caller_id", callerID),
	)

	return &UpdateResult{
		BookingID: bookingID,
		LawyerID:  booking.LawyerID,
		Status:    status,
		Counted:   counted,
	}, nil
}

// Lawyer returns the lawyer with their current counters.
func (s *Service) Lawyer(ctx context.Context, lawyerID string) (*models.Lawyer, error) {
	doc, found, err := s.store.Get(ctx, storage.CollectionLawyers, lawyerID)
	if err != nil {
		return nil, apperr.Internal("Failed to read lawyer.", err)
	}
	if !found {
		return nil, apperr.NotFound("Lawyer not found.")
	}
	lawyer := models.LawyerFromDocument(doc)
	return &lawyer, nil
}

// CreateBooking opens a Pending booking for callerID with an existing
// lawyer.
func (s *Service) CreateBooking(ctx context.Context, callerID string, input BookingInput) (*models.Booking, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return nil, apperr.Unauthenticated("User must be logged in.")
	}

	lawyerID := strings.TrimSpace(input.LawyerID)
	if lawyerID == "" {
		return nil, apperr.InvalidArgument("lawyerId is required.")
	}

	booking := models.Booking{
		ID:          uuid.New().String(),
		LawyerID:    lawyerID,
		ClientID:    callerID,
		Status:      models.BookingStatusPending,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   s.now().UTC(),
	}

	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		_, found, err := tx.Get(ctx, storage.CollectionLawyers, lawyerID)
		if err != nil {
			return apperr.Internal("Failed to read lawyer.", err)
		}
		if !found {
			return apperr.NotFound("Lawyer not found.")
		}

		if err := tx.Create(ctx, storage.CollectionBookings, booking.ID, booking.Fields()); err != nil {
			return apperr.Internal("Failed to create booking.", err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	logger.Info("Booking created",
		zap.String("booking_id", booking.ID),
		zap.String("lawyer_id", lawyerID),
		zap.String("client_id", callerID),
	)
	return &booking, nil
}

type BookingInput struct {
	LawyerID    string `json:"lawyerId"`
	Description string `json:"description"`
}

func counterDeltas(status string) map[string]int64 {
	deltas := map[string]int64{"totalCases": 1}
	switch status {
	case models.BookingStatusWon:
		deltas["wonCases"] = 1
	case models.BookingStatusLost:
		deltas["lostCases"] = 1
	}
	return deltas
}

// asAppError keeps apperr errors as they are and wraps anything else the
// store returned, such as a failed commit.
func asAppError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal("Failed to save changes.", err)
}

func storeError(message string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(message)
	}
	return apperr.Internal(message, err)
}

// statusLabel keeps the metric's label set bounded.
func statusLabel(status string) string {
	switch status {
	case models.BookingStatusWon, models.BookingStatusLost:
		return status
	default:
		return "other"
	}
}
