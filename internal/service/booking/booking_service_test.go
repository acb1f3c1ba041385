package booking

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/awesome-academy/booking-tour/internal/kafka"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetDetailByCode(ctx context.Context, code string) (*domain.BookingDetail, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetail), args.Error(1)
}

func (m *MockBookingRepository) FindPendingCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, deadline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CancelIfUnpaid(ctx context.Context, bookingID int64) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) SetStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error {
	args := m.Called(ctx, bookingID, status)
	return args.Error(0)
}

type MockDepartureRepository struct {
	mock.Mock
}

func (m *MockDepartureRepository) List(ctx context.Context) ([]domain.DepartureDetail, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DepartureDetail), args.Error(1)
}

func (m *MockDepartureRepository) GetDetailByID(ctx context.Context, id int64) (*domain.DepartureDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DepartureDetail), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService(bookings *MockBookingRepository, departures *MockDepartureRepository, producer *MockProducer) *BookingService {
	return NewBookingService(bookings, departures, producer, "notifications", 15*time.Minute, zerolog.Nop())
}

func openDeparture() *domain.DepartureDetail {
	return &domain.DepartureDetail{
		Departure: domain.TourDeparture{
			ID:             7,
			TourID:         3,
			Status:         domain.DepartureStatusOpen,
			TotalSlots:     20,
			AvailableSlots: 10,
			DepartureDate:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			ReturnDate:     time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		},
		Tour: domain.Tour{
			ID:              3,
			Name:            "Ha Long Bay Cruise",
			PriceAdultCents: 10000,
			PriceChildCents: 5000,
			DiscountRate:    10,
		},
	}
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockDepartures := &MockDepartureRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockDepartures, mockProducer)

	ctx := context.Background()
	input := CreateBookingInput{
		TourDepartureID: 7,
		NumAdults:       2,
		NumChildren:     1,
		ContactName:     "Jane Tran",
		ContactEmail:    "jane@example.com",
		ContactPhone:    "+84123456789",
	}

	mockDepartures.On("GetDetailByID", ctx, int64(7)).Return(openDeparture(), nil).Once()
	mockBookings.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications", mock.AnythingOfType("string"), mock.AnythingOfType("kafka.BookingEmailMessage")).Return(nil).Once()

	created, err := service.CreateBooking(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, domain.BookingStatusPending, created.Status)
	assert.Equal(t, int64(25000), created.SubTotalCents)
	assert.Equal(t, int64(2500), created.DiscountCents)
	assert.Equal(t, int64(22500), created.FinalTotalCents)
	assert.Regexp(t, regexp.MustCompile(`^BK\d{20}$`), created.Code)

	mockDepartures.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	service := newTestService(&MockBookingRepository{}, &MockDepartureRepository{}, &MockProducer{})
	ctx := context.Background()

	testCases := []struct {
		name  string
		input CreateBookingInput
	}{
		{
			name:  "zero passengers",
			input: CreateBookingInput{TourDepartureID: 7, ContactEmail: "a@b.c"},
		},
		{
			name:  "negative adults",
			input: CreateBookingInput{TourDepartureID: 7, NumAdults: -1, NumChildren: 3, ContactEmail: "a@b.c"},
		},
		{
			name:  "missing contact email",
			input: CreateBookingInput{TourDepartureID: 7, NumAdults: 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := service.CreateBooking(ctx, tc.input)
			assert.Nil(t, created)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestBookingService_CreateBooking_DepartureNotFound(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockDepartures := &MockDepartureRepository{}
	service := newTestService(mockBookings, mockDepartures, &MockProducer{})
	ctx := context.Background()

	mockDepartures.On("GetDetailByID", ctx, int64(99)).Return(nil, apperr.NotFound("tour departure not found")).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TourDepartureID: 99, NumAdults: 1, ContactEmail: "a@b.c"})

	assert.Nil(t, created)
	assert.True(t, apperr.IsNotFound(err))
	mockBookings.AssertNotCalled(t, "CreatePending")
}

func TestBookingService_CreateBooking_DepartureClosed(t *testing.T) {
	mockDepartures := &MockDepartureRepository{}
	service := newTestService(&MockBookingRepository{}, mockDepartures, &MockProducer{})
	ctx := context.Background()

	detail := openDeparture()
	detail.Departure.Status = domain.DepartureStatusClosed
	mockDepartures.On("GetDetailByID", ctx, int64(7)).Return(detail, nil).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TourDepartureID: 7, NumAdults: 1, ContactEmail: "a@b.c"})

	assert.Nil(t, created)
	assert.True(t, apperr.IsValidation(err))
}

func TestBookingService_CreateBooking_InsufficientSlots(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockDepartures := &MockDepartureRepository{}
	service := newTestService(mockBookings, mockDepartures, &MockProducer{})
	ctx := context.Background()

	detail := openDeparture()
	detail.Departure.AvailableSlots = 2
	mockDepartures.On("GetDetailByID", ctx, int64(7)).Return(detail, nil).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TourDepartureID: 7, NumAdults: 2, NumChildren: 1, ContactEmail: "a@b.c"})

	assert.Nil(t, created)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "not enough available slots")
	mockBookings.AssertNotCalled(t, "CreatePending")
}

func TestBookingService_CreateBooking_ConcurrentDecrementLoses(t *testing.T) {
	// The advisory pre-check passes but the atomic decrement in the
	// repository finds the seats gone.
	mockBookings := &MockBookingRepository{}
	mockDepartures := &MockDepartureRepository{}
	service := newTestService(mockBookings, mockDepartures, &MockProducer{})
	ctx := context.Background()

	mockDepartures.On("GetDetailByID", ctx, int64(7)).Return(openDeparture(), nil).Once()
	mockBookings.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(apperr.Validation("not enough available slots")).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TourDepartureID: 7, NumAdults: 2, ContactEmail: "a@b.c"})

	assert.Nil(t, created)
	assert.True(t, apperr.IsValidation(err))
}

func TestBookingService_CreateBooking_CodeCollisionRetried(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockDepartures := &MockDepartureRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockDepartures, mockProducer)
	ctx := context.Background()

	mockDepartures.On("GetDetailByID", ctx, int64(7)).Return(openDeparture(), nil).Once()
	mockBookings.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	mockBookings.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).Return(nil).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TourDepartureID: 7, NumAdults: 1, ContactEmail: "a@b.c"})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	mockBookings.AssertNumberOfCalls(t, "ExistsByCode", 2)
}

func TestBookingService_CreateBooking_PublishFailureSwallowed(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockDepartures := &MockDepartureRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockDepartures, mockProducer)
	ctx := context.Background()

	mockDepartures.On("GetDetailByID", ctx, int64(7)).Return(openDeparture(), nil).Once()
	mockBookings.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).Return(errors.New("kafka down")).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TourDepartureID: 7, NumAdults: 1, ContactEmail: "a@b.c"})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_PublishedMessageSnapshot(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockDepartures := &MockDepartureRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockDepartures, mockProducer)
	ctx := context.Background()

	mockDepartures.On("GetDetailByID", ctx, int64(7)).Return(openDeparture(), nil).Once()
	mockBookings.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	var published kafka.BookingEmailMessage
	mockProducer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(3).(kafka.BookingEmailMessage)
		}).Return(nil).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{
		TourDepartureID: 7, NumAdults: 2, NumChildren: 1,
		ContactName: "Jane Tran", ContactEmail: "jane@example.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, created.Code, published.BookingCode)
	assert.Equal(t, "Ha Long Bay Cruise", published.TourName)
	assert.Equal(t, int64(22500), published.FinalTotalCents)
	assert.Equal(t, string(domain.BookingStatusPending), published.Status)
}

func TestBookingService_CancelOverdueBookings(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := newTestService(mockBookings, &MockDepartureRepository{}, &MockProducer{})
	ctx := context.Background()

	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return t0 }

	overdue := []domain.Booking{
		{ID: 1, Code: "BK1", NumAdults: 2, NumChildren: 1},
		{ID: 2, Code: "BK2", NumAdults: 1},
		{ID: 3, Code: "BK3", NumAdults: 4},
	}
	mockBookings.On("FindPendingCreatedBefore", ctx, t0.Add(-15*time.Minute)).Return(overdue, nil).Once()
	mockBookings.On("CancelIfUnpaid", ctx, int64(1)).Return(true, nil).Once()
	// Paid in the meantime; the transaction skips it.
	mockBookings.On("CancelIfUnpaid", ctx, int64(2)).Return(false, nil).Once()
	// A failure on one booking must not abort the sweep.
	mockBookings.On("CancelIfUnpaid", ctx, int64(3)).Return(false, errors.New("db error")).Once()

	cancelled, err := service.CancelOverdueBookings(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, cancelled)
	mockBookings.AssertExpectations(t)
}

func TestBookingService_CancelOverdueBookings_QueryError(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := newTestService(mockBookings, &MockDepartureRepository{}, &MockProducer{})
	ctx := context.Background()

	mockBookings.On("FindPendingCreatedBefore", ctx, mock.AnythingOfType("time.Time")).
		Return(nil, errors.New("db down")).Once()

	cancelled, err := service.CancelOverdueBookings(ctx)

	assert.Error(t, err)
	assert.Equal(t, 0, cancelled)
}

func TestComputeTotals(t *testing.T) {
	testCases := []struct {
		name             string
		tour             domain.Tour
		adults, children int
		sub, disc, final int64
	}{
		{
			name: "ten percent discount",
			tour: domain.Tour{PriceAdultCents: 10000, PriceChildCents: 5000, DiscountRate: 10},
			adults: 2, children: 1,
			sub: 25000, disc: 2500, final: 22500,
		},
		{
			name: "no discount",
			tour: domain.Tour{PriceAdultCents: 9900, PriceChildCents: 4950},
			adults: 1, children: 2,
			sub: 19800, disc: 0, final: 19800,
		},
		{
			name: "fractional rate rounds half up",
			tour: domain.Tour{PriceAdultCents: 3333, DiscountRate: 7.5},
			adults: 1, children: 0,
			// 3333 * 0.075 = 249.975 -> 250
			sub: 3333, disc: 250, final: 3083,
		},
		{
			name: "negative rate treated as zero",
			tour: domain.Tour{PriceAdultCents: 1000, DiscountRate: -5},
			adults: 1, children: 0,
			sub: 1000, disc: 0, final: 1000,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sub, disc, final := ComputeTotals(tc.tour, tc.adults, tc.children)
			assert.Equal(t, tc.sub, sub)
			assert.Equal(t, tc.disc, disc)
			assert.Equal(t, tc.final, final)
		})
	}
}

func TestGenerateCode(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	code := GenerateCode(now)
	assert.Regexp(t, regexp.MustCompile(`^BK20260102150405\d{6}$`), code)
}
