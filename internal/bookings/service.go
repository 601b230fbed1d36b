package bookings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jeffgoval/massage/internal/catalog"
	"github.com/jeffgoval/massage/internal/chat"
	"github.com/jeffgoval/massage/internal/feed"
	"github.com/jeffgoval/massage/internal/metrics"
	"github.com/jeffgoval/massage/internal/models"
	"github.com/jeffgoval/massage/internal/pricing"
	"github.com/jeffgoval/massage/internal/tenants"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound           = errors.New("booking not found")
	ErrPackageUnavailable = errors.New("package unavailable")
	ErrForbidden          = errors.New("not allowed on this booking")
	ErrBadTransition      = errors.New("invalid status transition")
)

const collectionBookings = "bookings"

type TenantDirectory interface {
	Schedule(ctx context.Context, tenantID string) (tenants.WeekSchedule, error)
	RecordBooking(ctx context.Context, tenantID string) error
}

type PackageSource interface {
	GetPackage(ctx context.Context, id string) (catalog.Package, error)
	PackagePrices(ctx context.Context, tenantID string) ([]pricing.PackagePrice, error)
}

type PriceResolver interface {
	CurrentPrice(ctx context.Context, tenantID string, packages []pricing.PackagePrice, now time.Time) int
}

type ChatStarter interface {
	GetOrCreate(ctx context.Context, clientID, tenantID string) (chat.Thread, error)
}

type UserDirectory interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

type Mailer interface {
	SendBookingConfirmation(ctx context.Context, booking Booking, client models.User) (string, error)
}

type Service struct {
	repo     Repository
	tenants  TenantDirectory
	packages PackageSource
	prices   PriceResolver
	chats    ChatStarter
	users    UserDirectory
	mailer   Mailer
	feed     feed.Feed
	log      *slog.Logger
	location *time.Location
}

func NewService(
	repo Repository,
	tenantDir TenantDirectory,
	packages PackageSource,
	prices PriceResolver,
	chats ChatStarter,
	users UserDirectory,
	mailer Mailer,
	feedBus feed.Feed,
	log *slog.Logger,
	location *time.Location,
) *Service {
	return &Service{
		repo:     repo,
		tenants:  tenantDir,
		packages: packages,
		prices:   prices,
		chats:    chats,
		users:    users,
		mailer:   mailer,
		feed:     feedBus,
		log:      log,
		location: location,
	}
}

// Create validates the slot against the tenant's schedule and the already
// held bookings, resolves the price for the slot instant, and persists the
// booking as pending. The follow-ups (booking counter, chat thread, email)
// are best effort and never fail the booking.
func (s *Service) Create(ctx context.Context, clientID string, req CreateBookingRequest) (Booking, error) {
	pkg, err := s.packages.GetPackage(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
			return Booking{}, ErrPackageUnavailable
		}
		return Booking{}, err
	}
	if pkg.TenantID != req.TenantID || !pkg.IsActive {
		return Booking{}, ErrPackageUnavailable
	}

	week, err := s.tenants.Schedule(ctx, req.TenantID)
	if err != nil {
		return Booking{}, err
	}
	if err := slotWithinSchedule(week, req.Date, req.Time, pkg.DurationMinutes, s.location); err != nil {
		return Booking{}, err
	}
	past, err := slotIsPast(req.Date, req.Time, s.location, time.Now())
	if err != nil {
		return Booking{}, err
	}
	if past {
		return Booking{}, ErrSlotPast
	}

	held, err := s.repo.HeldOnDate(ctx, req.TenantID, req.Date)
	if err != nil {
		return Booking{}, err
	}
	reserved, err := reservedIntervals(held)
	if err != nil {
		return Booking{}, err
	}
	slotMin, err := parseClockToMinutes(req.Time)
	if err != nil {
		return Booking{}, err
	}
	wanted := interval{start: slotMin, end: slotMin + pkg.DurationMinutes}
	for _, r := range reserved {
		if overlaps(wanted, r) {
			return Booking{}, ErrSlotTaken
		}
	}

	slot, err := parseDateTime(req.Date, req.Time, s.location)
	if err != nil {
		return Booking{}, err
	}
	packagePrices, err := s.packages.PackagePrices(ctx, req.TenantID)
	if err != nil {
		s.log.Warn("booking create: package prices unavailable",
			slog.String("tenant_id", req.TenantID),
			slog.String("error", err.Error()),
		)
		packagePrices = nil
	}
	price := s.prices.CurrentPrice(ctx, req.TenantID, packagePrices, slot)

	now := time.Now().In(s.location)
	booking := Booking{
		ID:              primitive.NewObjectID().Hex(),
		TenantID:        req.TenantID,
		ClientID:        clientID,
		PackageID:       pkg.ID,
		PackageName:     pkg.Name,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: pkg.DurationMinutes,
		Price:           price,
		Status:          models.BookingStatusPending,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, booking); err != nil {
		return Booking{}, err
	}

	metrics.BookingsCreated.Inc()
	s.publish(ctx, booking.ID, feed.ActionCreate, booking)
	s.afterCreate(ctx, booking)

	return booking, nil
}

func (s *Service) afterCreate(ctx context.Context, booking Booking) {
	if err := s.tenants.RecordBooking(ctx, booking.TenantID); err != nil {
		s.log.Warn("booking create: totalBookings increment failed",
			slog.String("booking_id", booking.ID),
			slog.String("error", err.Error()),
		)
	}
	if _, err := s.chats.GetOrCreate(ctx, booking.ClientID, booking.TenantID); err != nil {
		s.log.Warn("booking create: chat open failed",
			slog.String("booking_id", booking.ID),
			slog.String("error", err.Error()),
		)
	}
	s.sendConfirmation(booking)
}

// sendConfirmation runs detached from the request: a slow or failing mail
// provider must not delay or fail the booking response.
func (s *Service) sendConfirmation(booking Booking) {
	if s.mailer == nil || s.users == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client, err := s.users.GetUser(ctx, booking.ClientID)
		if err != nil {
			s.log.Warn("booking confirmation: client lookup failed",
				slog.String("booking_id", booking.ID),
				slog.String("error", err.Error()),
			)
			return
		}
		messageID, err := s.mailer.SendBookingConfirmation(ctx, booking, client)
		if err != nil {
			s.log.Warn("booking confirmation: send failed",
				slog.String("booking_id", booking.ID),
				slog.String("error", err.Error()),
			)
			return
		}
		s.log.Info("booking confirmation: sent",
			slog.String("booking_id", booking.ID),
			slog.String("message_id", messageID),
		)
	}()
}

func (s *Service) Get(ctx context.Context, id, actorID, role string) (Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	if role != models.RoleAdmin && booking.ClientID != actorID && booking.TenantID != actorID {
		return Booking{}, ErrForbidden
	}
	return booking, nil
}

// UpdateStatus applies the transition rules: a pending booking may move to
// confirmed, cancelled or completed; a confirmed one to cancelled or
// completed. Tenant and admin drive the lifecycle; the client may only
// cancel while pending.
func (s *Service) UpdateStatus(ctx context.Context, id, actorID, role, status string) (Booking, error) {
	booking, err := s.Get(ctx, id, actorID, role)
	if err != nil {
		return Booking{}, err
	}

	if !transitionAllowed(booking.Status, status) {
		return Booking{}, ErrBadTransition
	}
	isTenant := booking.TenantID == actorID || role == models.RoleAdmin
	if !isTenant {
		if booking.ClientID != actorID || booking.Status != models.BookingStatusPending || status != models.BookingStatusCancelled {
			return Booking{}, ErrForbidden
		}
	}

	now := time.Now().In(s.location)
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}

	booking.Status = status
	booking.UpdatedAt = now
	s.publish(ctx, booking.ID, feed.ActionUpdate, booking)
	return booking, nil
}

func transitionAllowed(from, to string) bool {
	switch from {
	case models.BookingStatusPending:
		return to == models.BookingStatusConfirmed ||
			to == models.BookingStatusCancelled ||
			to == models.BookingStatusCompleted
	case models.BookingStatusConfirmed:
		return to == models.BookingStatusCancelled ||
			to == models.BookingStatusCompleted
	}
	return false
}

func (s *Service) ListForTenant(ctx context.Context, tenantID string, filter ListFilter, limit, offset int64) ([]Booking, error) {
	return s.repo.ListByTenant(ctx, tenantID, filter, limit, offset)
}

func (s *Service) ListForClient(ctx context.Context, clientID string, limit, offset int64) ([]Booking, error) {
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

func (s *Service) publish(ctx context.Context, docID, action string, payload any) {
	if err := s.feed.Publish(ctx, collectionBookings, docID, action, payload); err != nil {
		s.log.Warn("bookings feed publish failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
