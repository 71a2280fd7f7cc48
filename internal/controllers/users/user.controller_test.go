package userController

import (
	"context"
	"errors"
	"palcontent/internal/models"
	"palcontent/internal/repositories"
	"palcontent/internal/testutil"
	"palcontent/internal/types"
	"testing"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	contentType string
	err         error
}

func (f *fakeUploader) UploadAvatar(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.contentType = contentType
	return "https://cdn.example.com/avatars/" + userID.String() + "/a.png", nil
}

func newController(t *testing.T) (*UserController, *fakeUploader, *models.User) {
	t.Helper()
	db := testutil.NewDB(t)
	uploader := &fakeUploader{}
	controller := &UserController{
		userRepo: repositories.New(db).User,
		storage:  uploader,
		db:       db,
		log:      logger.New("userController"),
	}
	user := testutil.SeedUser(t, db, models.RoleTechnician, nil, nil)
	return controller, uploader, user
}

func ptr[T any](v T) *T { return &v }

func TestUpdateProfile(t *testing.T) {
	controller, _, user := newController(t)
	ctx := context.Background()

	profile, err := controller.UpdateProfile(ctx, user, UpdateProfileRequest{
		FullName:    ptr("  Dana Keys "),
		Phone:       ptr("555-123-4567"),
		Preferences: &models.Preferences{Theme: "Dark", TableStyle: "compact"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana Keys", profile.FullName)
	assert.Equal(t, "+15551234567", profile.Phone)
	assert.Equal(t, models.Preferences{Theme: "dark", TableStyle: "compact"}, profile.Preferences)

	profile, err = controller.UpdateProfile(ctx, user, UpdateProfileRequest{
		Preferences: &models.Preferences{LogoURL: "https://cdn.example.com/logo.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", profile.Preferences.Theme, "unset preferences keep their stored value")
	assert.Equal(t, "https://cdn.example.com/logo.png", profile.Preferences.LogoURL)

	stored, err := controller.userRepo.GetByID(ctx, controller.db.SQL, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Keys", stored.FullName)
	assert.Equal(t, "compact", stored.Preferences.Data().TableStyle)
}

func TestUpdateProfile_Rejections(t *testing.T) {
	controller, _, user := newController(t)

	tests := []struct {
		name string
		req  UpdateProfileRequest
	}{
		{name: "empty", req: UpdateProfileRequest{}},
		{name: "blank name", req: UpdateProfileRequest{FullName: ptr(" ")}},
		{name: "bad phone", req: UpdateProfileRequest{Phone: ptr("12")}},
		{name: "bad theme", req: UpdateProfileRequest{Preferences: &models.Preferences{Theme: "neon"}}},
		{name: "insecure logo", req: UpdateProfileRequest{Preferences: &models.Preferences{LogoURL: "http://x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := controller.UpdateProfile(context.Background(), user, tt.req)
			assert.True(t, errors.Is(err, types.ErrValidation), "got %v", err)
		})
	}
}

func TestUploadAvatar(t *testing.T) {
	controller, uploader, user := newController(t)
	ctx := context.Background()

	profile, err := controller.UploadAvatar(ctx, user, "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Contains(t, profile.AvatarURL, user.ID.String())
	assert.Equal(t, "image/png", uploader.contentType)
	assert.Equal(t, profile.AvatarURL, user.AvatarURL)

	uploader.err = types.ErrUpstream
	before := user.AvatarURL
	_, err = controller.UploadAvatar(ctx, user, "image/png", []byte{1})
	assert.True(t, errors.Is(err, types.ErrUpstream))
	assert.Equal(t, before, user.AvatarURL, "failed uploads leave the profile unchanged")
}
