package techHubController

import (
	"context"
	"palcontent/internal/database"
	"palcontent/internal/models"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/types"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

const maxSharedPhotos = 4

type chatHub interface {
	Messages(franchiseeID uuid.UUID, room string) ([]types.ChatMessage, error)
	Post(ctx context.Context, author services.ChatAuthor, room string, text string) ([]types.ChatMessage, error)
	ShareJob(ctx context.Context, author services.ChatAuthor, card types.JobShareCard) (types.ChatMessage, error)
}

type PostRequest struct {
	FranchiseeID *uuid.UUID `json:"franchiseeId,omitempty"`
	Room         string     `json:"room"`
	Text         string     `json:"text"`
}

// ShareRequest either names a submission to build the card from or carries
// the card fields directly.
type ShareRequest struct {
	FranchiseeID *uuid.UUID `json:"franchiseeId,omitempty"`
	SubmissionID *uuid.UUID `json:"submissionId,omitempty"`
	types.JobShareCard
}

type TechHubController struct {
	repos repositories.Repository
	db    database.DB
	hub   chatHub
	log   logger.Logger
}

type TechHubControllerInterface interface {
	Messages(ctx context.Context, user *models.User, franchiseeID *uuid.UUID, room string) ([]types.ChatMessage, error)
	Post(ctx context.Context, user *models.User, req PostRequest) ([]types.ChatMessage, error)
	ShareJob(ctx context.Context, user *models.User, req ShareRequest) (types.ChatMessage, error)
}

func New(repos repositories.Repository, services services.Service, db database.DB) TechHubControllerInterface {
	return &TechHubController{
		repos: repos,
		db:    db,
		hub:   services.TechHub,
		log:   logger.New("techHubController"),
	}
}

func (c *TechHubController) Messages(
	ctx context.Context,
	user *models.User,
	franchiseeID *uuid.UUID,
	room string,
) ([]types.ChatMessage, error) {
	id, room, err := c.resolve(ctx, user, franchiseeID, room)
	if err != nil {
		return nil, err
	}
	return c.hub.Messages(id, room)
}

func (c *TechHubController) Post(ctx context.Context, user *models.User, req PostRequest) ([]types.ChatMessage, error) {
	id, room, err := c.resolve(ctx, user, req.FranchiseeID, req.Room)
	if err != nil {
		return nil, err
	}
	return c.hub.Post(ctx, c.author(user, id), room, req.Text)
}

func (c *TechHubController) ShareJob(ctx context.Context, user *models.User, req ShareRequest) (types.ChatMessage, error) {
	log := c.log.TraceFromContext(ctx).Function("ShareJob")

	id, _, err := c.resolve(ctx, user, req.FranchiseeID, types.TechHubGroupRoom)
	if err != nil {
		return types.ChatMessage{}, err
	}

	card := req.JobShareCard
	if req.SubmissionID != nil {
		submission, err := c.repos.JobSubmission.GetByID(ctx, c.db.SQL, *req.SubmissionID)
		if err != nil {
			return types.ChatMessage{}, err
		}
		if submission.FranchiseeID != id {
			return types.ChatMessage{}, log.Err("submission outside franchise", types.ErrNotFound, "submissionID", submission.ID)
		}
		card = CardFor(submission)
	}

	return c.hub.ShareJob(ctx, c.author(user, id), card)
}

// CardFor summarizes a submission for the group feed. Customer details are
// never included.
func CardFor(submission *models.JobSubmission) types.JobShareCard {
	photos := []string(submission.Media.AfterPhotos)
	if len(photos) == 0 {
		photos = submission.Media.All()
	}
	if len(photos) > maxSharedPhotos {
		photos = photos[:maxSharedPhotos]
	}

	return types.JobShareCard{
		SubmissionID: submission.ID.String(),
		Category:     string(submission.Service.Category),
		ServiceType:  submission.Service.Type,
		Location:     submission.Service.Location,
		PhotoURLs:    append([]string(nil), photos...),
		Duration:     submission.Service.Duration,
	}
}

// resolve picks the franchise feed and checks the room. Private rooms are
// dm:<userID> and only their owner (or an admin) may use them.
func (c *TechHubController) resolve(
	ctx context.Context,
	user *models.User,
	franchiseeID *uuid.UUID,
	room string,
) (uuid.UUID, string, error) {
	log := c.log.TraceFromContext(ctx).Function("resolve")

	id, ok := user.FranchiseFor(franchiseeID)
	if !ok {
		return uuid.Nil, "", log.Err("franchise not accessible", types.NewFieldError("franchiseeId is required"), "userID", user.ID)
	}

	room = strings.TrimSpace(room)
	if room == "" {
		room = types.TechHubGroupRoom
	}
	if !services.ValidRoom(room) {
		return uuid.Nil, "", log.Err("invalid room", types.NewFieldError("room must be group or dm:<id>"), "room", room)
	}
	if owner, private := strings.CutPrefix(room, types.TechHubDMPrefix); private && !user.IsAdmin() && owner != user.ID.String() {
		return uuid.Nil, "", log.Err("private room belongs to someone else", types.ErrForbidden, "room", room, "userID", user.ID)
	}
	return id, room, nil
}

func (c *TechHubController) author(user *models.User, franchiseeID uuid.UUID) services.ChatAuthor {
	name := strings.TrimSpace(user.FullName)
	if name == "" && user.Email != nil {
		name, _, _ = strings.Cut(*user.Email, "@")
	}
	return services.ChatAuthor{ID: user.ID.String(), Name: name, FranchiseeID: franchiseeID}
}
