package testimonialController

import (
	"context"
	"errors"
	"palcontent/config"
	"palcontent/internal/models"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/testutil"
	"palcontent/internal/types"
	"strings"
	"testing"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSMS struct {
	bodies []string
	result services.SMSResult
	err    error
}

func (f *fakeSMS) Send(ctx context.Context, smsConfig *models.SMSConfig, to string, body string) (services.SMSResult, error) {
	f.bodies = append(f.bodies, body)
	return f.result, f.err
}

type fakeEmail struct {
	messages []services.EmailMessage
	err      error
}

func (f *fakeEmail) Send(ctx context.Context, message services.EmailMessage) (string, error) {
	f.messages = append(f.messages, message)
	return "ses-1", f.err
}

type fakeLimiter struct{ err error }

func (f *fakeLimiter) Allow(ctx context.Context, limit services.RateLimit, subject string) error {
	return f.err
}

type fixture struct {
	controller *TestimonialController
	sms        *fakeSMS
	email      *fakeEmail
	limiter    *fakeLimiter
	franchisee *models.Franchisee
	owner      *models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := fixture{
		sms:     &fakeSMS{result: services.SMSResult{MessageID: "SM1", Status: models.DeliveryStatusAccepted}},
		email:   &fakeEmail{},
		limiter: &fakeLimiter{},
	}
	f.controller = &TestimonialController{
		repos:   repositories.New(db),
		db:      db,
		config:  config.Config{PublicAppURL: "https://app.example.com"},
		sms:     f.sms,
		email:   f.email,
		limiter: f.limiter,
		now:     func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) },
		log:     logger.New("testimonialController"),
	}
	f.franchisee = testutil.SeedFranchisee(t, db, "ABC")
	f.owner = testutil.SeedUser(t, db, models.RoleFranchisee, &f.franchisee.ID, nil)
	return f
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	happy, err := f.controller.Create(ctx, CreateRequest{
		FranchiseeID: f.franchisee.ID,
		CustomerName: " Sam ",
		Rating:       5,
		Comment:      "Fast and friendly",
	})
	require.NoError(t, err)
	assert.Equal(t, f.franchisee.GoogleReviewURL, happy.GoogleReviewURL)
	assert.True(t, happy.Testimonial.RedirectedToGoogle)
	assert.Equal(t, models.TestimonialStatusPending, happy.Testimonial.Status)
	assert.Equal(t, "Sam", happy.Testimonial.CustomerName)

	unhappy, err := f.controller.Create(ctx, CreateRequest{FranchiseeID: f.franchisee.ID, CustomerName: "Lee", Rating: 2})
	require.NoError(t, err)
	assert.Empty(t, unhappy.GoogleReviewURL)
	assert.False(t, unhappy.Testimonial.RedirectedToGoogle)

	_, err = f.controller.Create(ctx, CreateRequest{FranchiseeID: f.franchisee.ID, CustomerName: "Lee", Rating: 0})
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = f.controller.Create(ctx, CreateRequest{FranchiseeID: uuid.New(), CustomerName: "Lee", Rating: 3})
	assert.True(t, errors.Is(err, types.ErrNotFound))

	other := testutil.SeedFranchisee(t, f.controller.db, "XYZ")
	stranger := testutil.SeedTechnician(t, f.controller.db, other, "XYZ-0001", "")
	_, err = f.controller.Create(ctx, CreateRequest{
		FranchiseeID: f.franchisee.ID,
		TechnicianID: &stranger.ID,
		CustomerName: "Lee",
		Rating:       3,
	})
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestListAndModerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.controller.Create(ctx, CreateRequest{FranchiseeID: f.franchisee.ID, CustomerName: "Sam", Rating: 4})
	require.NoError(t, err)

	other := testutil.SeedFranchisee(t, f.controller.db, "XYZ")
	_, err = f.controller.Create(ctx, CreateRequest{FranchiseeID: other.ID, CustomerName: "Kim", Rating: 5})
	require.NoError(t, err)

	own, err := f.controller.List(ctx, f.owner, nil, "")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	admin := testutil.SeedUser(t, f.controller.db, models.RoleAdmin, nil, nil)
	everything, err := f.controller.List(ctx, admin, nil, "all")
	require.NoError(t, err)
	assert.Len(t, everything, 2)

	_, err = f.controller.List(ctx, f.owner, &other.ID, "")
	assert.True(t, errors.Is(err, types.ErrForbidden))
	_, err = f.controller.List(ctx, f.owner, nil, "archived")
	assert.True(t, errors.Is(err, types.ErrValidation))

	outsider := testutil.SeedUser(t, f.controller.db, models.RoleFranchisee, &other.ID, nil)
	_, err = f.controller.Moderate(ctx, outsider, created.Testimonial.ID, ModerateRequest{Status: models.TestimonialStatusPublished})
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = f.controller.Moderate(ctx, f.owner, created.Testimonial.ID, ModerateRequest{Status: "deleted"})
	assert.True(t, errors.Is(err, types.ErrValidation))

	moderated, err := f.controller.Moderate(ctx, f.owner, created.Testimonial.ID, ModerateRequest{Status: models.TestimonialStatusPublished})
	require.NoError(t, err)
	assert.Equal(t, models.TestimonialStatusPublished, moderated.Status)

	published, err := f.controller.List(ctx, f.owner, nil, "published")
	require.NoError(t, err)
	assert.Len(t, published, 1)

	technician := testutil.SeedUser(t, f.controller.db, models.RoleTechnician, &f.franchisee.ID, nil)
	_, err = f.controller.List(ctx, technician, nil, "")
	assert.True(t, errors.Is(err, types.ErrForbidden))
}

func TestRequestReview_SMS(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.controller.RequestReview(ctx, f.owner, ReviewRequestInput{
		CustomerName: "Sam",
		Channel:      models.ReviewChannelSMS,
		To:           "(555) 987-6543",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusAccepted, result.DeliveryStatus)
	assert.Equal(t, "SM1", result.MessageID)
	assert.True(t, strings.HasPrefix(result.Link, "https://app.example.com/api/reviews/r/"))

	require.Len(t, f.sms.bodies, 1)
	assert.Contains(t, f.sms.bodies[0], "Hi Sam, thanks for choosing ABC Locksmiths.")
	assert.Contains(t, f.sms.bodies[0], result.Link)

	token := strings.TrimPrefix(result.Link, "https://app.example.com/api/reviews/r/")
	stored, err := f.controller.repos.ReviewRequest.GetByToken(ctx, f.controller.db.SQL, token)
	require.NoError(t, err)
	assert.Equal(t, "+15559876543", stored.Destination)
	assert.Equal(t, models.DeliveryStatusAccepted, stored.DeliveryStatus)
	assert.Equal(t, f.owner.ID, stored.RequestedBy)
}

func TestRequestReview_FailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sms.err = types.ErrUpstream
	f.sms.result = services.SMSResult{}

	result, err := f.controller.RequestReview(ctx, f.owner, ReviewRequestInput{
		CustomerName: "Sam",
		Channel:      models.ReviewChannelSMS,
		To:           "+15559876543",
	})
	assert.True(t, errors.Is(err, types.ErrUpstream))
	require.NotNil(t, result)
	assert.Equal(t, models.DeliveryStatusFailed, result.DeliveryStatus)
	assert.NotEmpty(t, result.Error)

	stored, err := f.controller.repos.ReviewRequest.GetByToken(
		ctx, f.controller.db.SQL, strings.TrimPrefix(result.Link, "https://app.example.com/api/reviews/r/"))
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusFailed, stored.DeliveryStatus)
	assert.NotEmpty(t, stored.DeliveryError)
}

func TestRequestReview_EmailAndLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.controller.RequestReview(ctx, f.owner, ReviewRequestInput{
		CustomerName: "Sam",
		Channel:      models.ReviewChannelEmail,
		To:           "Sam@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-1", result.MessageID)
	require.Len(t, f.email.messages, 1)
	assert.Equal(t, "sam@example.com", f.email.messages[0].To)
	assert.Contains(t, f.email.messages[0].TextBody, result.Link)

	_, err = f.controller.RequestReview(ctx, f.owner, ReviewRequestInput{
		CustomerName: "Sam",
		Channel:      models.ReviewChannelEmail,
		To:           "not-an-email",
	})
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = f.controller.RequestReview(ctx, f.owner, ReviewRequestInput{CustomerName: "Sam", Channel: "fax", To: "x"})
	assert.True(t, errors.Is(err, types.ErrValidation))

	f.limiter.err = services.ErrRateLimited
	_, err = f.controller.RequestReview(ctx, f.owner, ReviewRequestInput{
		CustomerName: "Sam",
		Channel:      models.ReviewChannelSMS,
		To:           "+15559876543",
	})
	assert.True(t, errors.Is(err, services.ErrRateLimited))
	assert.Empty(t, f.sms.bodies)
}

func TestRedirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.controller.RequestReview(ctx, f.owner, ReviewRequestInput{
		CustomerName: "Sam",
		Channel:      models.ReviewChannelSMS,
		To:           "+15559876543",
	})
	require.NoError(t, err)
	token := strings.TrimPrefix(result.Link, "https://app.example.com/api/reviews/r/")

	for range 2 {
		redirect, err := f.controller.Redirect(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, f.franchisee.GoogleReviewURL, redirect.URL)
		assert.Equal(t, TrackingRecorded, redirect.TrackingStatus)
	}

	stored, err := f.controller.repos.ReviewRequest.GetByToken(ctx, f.controller.db.SQL, token)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ClickCount)
	require.NotNil(t, stored.ClickedAt)
	assert.True(t, stored.ClickedAt.Equal(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))

	_, err = f.controller.Redirect(ctx, "missing")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}
