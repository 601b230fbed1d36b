package bookings

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jeffgoval/massage/internal/catalog"
	"github.com/jeffgoval/massage/internal/chat"
	"github.com/jeffgoval/massage/internal/feed"
	"github.com/jeffgoval/massage/internal/models"
	"github.com/jeffgoval/massage/internal/pricing"
	"github.com/jeffgoval/massage/internal/tenants"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	mu   sync.Mutex
	rows map[string]Booking
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]Booking)}
}

func (f *fakeRepo) Insert(ctx context.Context, booking Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[booking.ID] = booking
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return Booking{}, mongo.ErrNoDocuments
	}
	return b, nil
}

func (f *fakeRepo) ListByTenant(ctx context.Context, tenantID string, filter ListFilter, limit, offset int64) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.rows {
		if b.TenantID == tenantID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByClient(ctx context.Context, clientID string, limit, offset int64) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.rows {
		if b.ClientID == clientID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) HeldOnDate(ctx context.Context, tenantID, date string) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.rows {
		if b.TenantID == tenantID && b.Date == date &&
			(b.Status == models.BookingStatusPending || b.Status == models.BookingStatusConfirmed) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	b.Status = status
	b.UpdatedAt = at
	f.rows[id] = b
	return nil
}

type fakeTenantDir struct {
	week     tenants.WeekSchedule
	recorded int
}

func (f *fakeTenantDir) Schedule(ctx context.Context, tenantID string) (tenants.WeekSchedule, error) {
	return f.week, nil
}

func (f *fakeTenantDir) RecordBooking(ctx context.Context, tenantID string) error {
	f.recorded++
	return nil
}

type fakePackages struct {
	pkg catalog.Package
}

func (f *fakePackages) GetPackage(ctx context.Context, id string) (catalog.Package, error) {
	if id != f.pkg.ID {
		return catalog.Package{}, mongo.ErrNoDocuments
	}
	return f.pkg, nil
}

func (f *fakePackages) PackagePrices(ctx context.Context, tenantID string) ([]pricing.PackagePrice, error) {
	return []pricing.PackagePrice{{PriceCents: f.pkg.PriceCents, Active: f.pkg.IsActive}}, nil
}

type fixedResolver struct {
	price int
}

func (f fixedResolver) CurrentPrice(ctx context.Context, tenantID string, packages []pricing.PackagePrice, now time.Time) int {
	return f.price
}

type fakeChatStarter struct {
	opened int
}

func (f *fakeChatStarter) GetOrCreate(ctx context.Context, clientID, tenantID string) (chat.Thread, error) {
	f.opened++
	return chat.Thread{ID: "thread-1", ClientID: clientID, TenantID: tenantID}, nil
}

func openAllWeek() tenants.WeekSchedule {
	week := tenants.WeekSchedule{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		week[day] = tenants.DaySchedule{Enabled: true, Start: "08:00", End: "22:00"}
	}
	return week
}

func newTestFixture() (*Service, *fakeRepo, *fakeTenantDir, *fakeChatStarter) {
	repo := newFakeRepo()
	dir := &fakeTenantDir{week: openAllWeek()}
	chats := &fakeChatStarter{}
	pkgs := &fakePackages{pkg: catalog.Package{
		ID:              "pkg-1",
		TenantID:        "tenant-1",
		Name:            "Relaxante 60",
		DurationMinutes: 60,
		PriceCents:      20000,
		IsActive:        true,
	}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, dir, pkgs, fixedResolver{price: 400}, chats, nil, nil, feed.NewNoop(), log, time.UTC)
	return svc, repo, dir, chats
}

func TestCreateCapturesPrice(t *testing.T) {
	svc, repo, dir, chats := newTestFixture()
	ctx := context.Background()

	booking, err := svc.Create(ctx, "client-1", CreateBookingRequest{
		TenantID:  "tenant-1",
		PackageID: "pkg-1",
		Date:      "2030-06-03",
		Time:      "14:00",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if booking.Price != 400 {
		t.Fatalf("captured price = %d, want 400", booking.Price)
	}
	if booking.Status != models.BookingStatusPending {
		t.Fatalf("status = %q, want pending", booking.Status)
	}
	if booking.DurationMinutes != 60 {
		t.Fatalf("duration = %d, want 60", booking.DurationMinutes)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("row count = %d, want 1", len(repo.rows))
	}
	if dir.recorded != 1 {
		t.Fatalf("totalBookings increments = %d, want 1", dir.recorded)
	}
	if chats.opened != 1 {
		t.Fatalf("chat opens = %d, want 1", chats.opened)
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	svc, _, _, _ := newTestFixture()
	ctx := context.Background()

	req := CreateBookingRequest{
		TenantID:  "tenant-1",
		PackageID: "pkg-1",
		Date:      "2030-06-03",
		Time:      "14:00",
	}
	if _, err := svc.Create(ctx, "client-1", req); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	req.Time = "14:30"
	if _, err := svc.Create(ctx, "client-2", req); err != ErrSlotTaken {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	req.Time = "15:00"
	if _, err := svc.Create(ctx, "client-2", req); err != nil {
		t.Fatalf("back-to-back slot must be allowed, got %v", err)
	}
}

func TestCreateReleasesCancelledSlot(t *testing.T) {
	svc, _, _, _ := newTestFixture()
	ctx := context.Background()

	req := CreateBookingRequest{
		TenantID:  "tenant-1",
		PackageID: "pkg-1",
		Date:      "2030-06-03",
		Time:      "14:00",
	}
	booking, err := svc.Create(ctx, "client-1", req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, booking.ID, "client-1", models.RoleClient, models.BookingStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := svc.Create(ctx, "client-2", req); err != nil {
		t.Fatalf("cancelled slot must be rebookable, got %v", err)
	}
}

func TestCreateRejectsInactivePackage(t *testing.T) {
	svc, _, _, _ := newTestFixture()
	svc.packages.(*fakePackages).pkg.IsActive = false
	ctx := context.Background()

	_, err := svc.Create(ctx, "client-1", CreateBookingRequest{
		TenantID:  "tenant-1",
		PackageID: "pkg-1",
		Date:      "2030-06-03",
		Time:      "14:00",
	})
	if err != ErrPackageUnavailable {
		t.Fatalf("expected ErrPackageUnavailable, got %v", err)
	}
}

func TestCreateRejectsForeignPackage(t *testing.T) {
	svc, _, _, _ := newTestFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "client-1", CreateBookingRequest{
		TenantID:  "tenant-2",
		PackageID: "pkg-1",
		Date:      "2030-06-03",
		Time:      "14:00",
	})
	if err != ErrPackageUnavailable {
		t.Fatalf("expected ErrPackageUnavailable, got %v", err)
	}
}

func TestCreateRejectsPastSlot(t *testing.T) {
	svc, _, _, _ := newTestFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "client-1", CreateBookingRequest{
		TenantID:  "tenant-1",
		PackageID: "pkg-1",
		Date:      "2020-06-03",
		Time:      "14:00",
	})
	if err != ErrSlotPast {
		t.Fatalf("expected ErrSlotPast, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, _, _, _ := newTestFixture()
	ctx := context.Background()

	create := func(t *testing.T, clock string) Booking {
		t.Helper()
		booking, err := svc.Create(ctx, "client-1", CreateBookingRequest{
			TenantID:  "tenant-1",
			PackageID: "pkg-1",
			Date:      "2030-06-03",
			Time:      clock,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return booking
	}

	booking := create(t, "09:00")
	updated, err := svc.UpdateStatus(ctx, booking.ID, "tenant-1", models.RoleProfessional, models.BookingStatusConfirmed)
	if err != nil {
		t.Fatalf("tenant confirm: %v", err)
	}
	if updated.Status != models.BookingStatusConfirmed {
		t.Fatalf("status = %q, want confirmed", updated.Status)
	}

	if _, err := svc.UpdateStatus(ctx, booking.ID, "client-1", models.RoleClient, models.BookingStatusCancelled); err != ErrForbidden {
		t.Fatalf("client cancel after confirm: expected ErrForbidden, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, booking.ID, "tenant-1", models.RoleProfessional, models.BookingStatusCompleted); err != nil {
		t.Fatalf("tenant complete: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, booking.ID, "tenant-1", models.RoleProfessional, models.BookingStatusConfirmed); err != ErrBadTransition {
		t.Fatalf("completed is terminal: expected ErrBadTransition, got %v", err)
	}

	second := create(t, "11:00")
	if _, err := svc.UpdateStatus(ctx, second.ID, "client-1", models.RoleClient, models.BookingStatusCancelled); err != nil {
		t.Fatalf("client cancel while pending: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, second.ID, "client-1", models.RoleClient, models.BookingStatusConfirmed); err != ErrBadTransition {
		t.Fatalf("cancelled is terminal: expected ErrBadTransition, got %v", err)
	}

	third := create(t, "16:00")
	if _, err := svc.UpdateStatus(ctx, third.ID, "client-1", models.RoleClient, models.BookingStatusConfirmed); err != ErrForbidden {
		t.Fatalf("client confirm: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, third.ID, "stranger", models.RoleClient, models.BookingStatusCancelled); err != ErrForbidden {
		t.Fatalf("stranger: expected ErrForbidden, got %v", err)
	}
}
