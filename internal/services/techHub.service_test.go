package services

import (
	"context"
	"errors"
	"fmt"
	"palcontent/internal/events"
	"palcontent/internal/types"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *capturePublisher) Publish(channel events.Channel, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	event.Channel = channel
	p.events = append(p.events, event)
	return p.err
}

func (p *capturePublisher) all() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func TestSelectResponse(t *testing.T) {
	pool := []string{"a", "b", "c"}

	tests := []struct {
		name string
		seed int
		pool []string
		want string
	}{
		{"first", 0, pool, "a"},
		{"wraps", 4, pool, "b"},
		{"exact multiple", 9, pool, "a"},
		{"negative seed", -1, pool, "c"},
		{"empty pool", 42, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectResponse(tt.seed, tt.pool))
		})
	}
}

func TestSeedFor(t *testing.T) {
	assert.Equal(t, 0, SeedFor(""))
	assert.Equal(t, 2+int('a')+int('b'), SeedFor("ab"))
	assert.Equal(t, SeedFor("locked out on Main"), SeedFor("locked out on Main"))
}

func TestReplyFor_IsDeterministicPerCategory(t *testing.T) {
	message := "Customer locked out of their house, any tips?"
	first := ReplyFor(message)
	assert.Equal(t, first, ReplyFor(message))
	assert.Contains(t, responsePools[categoryLockout], first)

	assert.Contains(t, responsePools[categoryAutomotive], ReplyFor("Programming a key fob on a 2019 Civic"))
	assert.Contains(t, responsePools[categoryGeneral], ReplyFor("Good morning team"))
}

func TestValidRoom(t *testing.T) {
	assert.True(t, ValidRoom("group"))
	assert.True(t, ValidRoom("dm:3f2a"))
	assert.False(t, ValidRoom("dm:"))
	assert.False(t, ValidRoom("dm:has space"))
	assert.False(t, ValidRoom("random"))
	assert.False(t, ValidRoom(""))
}

func TestTechHubService_Post(t *testing.T) {
	publisher := &capturePublisher{}
	service := NewTechHubService(publisher, 10)
	franchiseeID := uuid.New()
	author := ChatAuthor{ID: "tech-1", Name: "Dana", FranchiseeID: franchiseeID}

	posted, err := service.Post(context.Background(), author, "group", "  Stuck on a jammed deadbolt  ")
	require.NoError(t, err)
	require.Len(t, posted, 2)
	assert.Equal(t, types.ChatKindMessage, posted[0].Kind)
	assert.Equal(t, "Stuck on a jammed deadbolt", posted[0].Text)
	assert.Equal(t, types.ChatKindReply, posted[1].Kind)
	assert.Equal(t, ReplyFor("Stuck on a jammed deadbolt"), posted[1].Text)

	feed, err := service.Messages(franchiseeID, "group")
	require.NoError(t, err)
	assert.Len(t, feed, 2)

	other, err := service.Messages(uuid.New(), "group")
	require.NoError(t, err)
	assert.Empty(t, other, "feeds are scoped per franchise")

	published := publisher.all()
	require.Len(t, published, 2)
	assert.Equal(t, events.TECH_HUB_CHANNEL, published[0].Channel)
	assert.Equal(t, events.TECH_HUB_MESSAGE, published[0].Type)
	assert.Equal(t, franchiseeID, *published[0].FranchiseeID)

	_, err = service.Post(context.Background(), author, "lobby", "hi")
	assert.True(t, errors.Is(err, types.ErrValidation))
	_, err = service.Post(context.Background(), author, "group", "   ")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestTechHubService_PrivateRoomsAreAddressed(t *testing.T) {
	publisher := &capturePublisher{}
	service := NewTechHubService(publisher, 10)
	ownerID := uuid.New()
	author := ChatAuthor{ID: ownerID.String(), Name: "Dana", FranchiseeID: uuid.New()}

	_, err := service.Post(context.Background(), author, "dm:"+ownerID.String(), "Which pick for a Medeco?")
	require.NoError(t, err)
	_, err = service.Post(context.Background(), author, "dm:tech-2", "hello")
	require.NoError(t, err)
	_, err = service.Post(context.Background(), author, "group", "morning all")
	require.NoError(t, err)

	published := publisher.all()
	require.Len(t, published, 6)
	for _, event := range published[:2] {
		require.NotNil(t, event.UserID, "message and assistant reply are both private")
		assert.Equal(t, ownerID, *event.UserID)
	}
	for _, event := range published[2:4] {
		require.NotNil(t, event.UserID)
		assert.Equal(t, uuid.Nil, *event.UserID)
	}
	for _, event := range published[4:] {
		assert.Nil(t, event.UserID, "group messages fan out to the franchise")
	}
}

func TestTechHubService_FeedIsBounded(t *testing.T) {
	service := NewTechHubService(nil, 5)
	author := ChatAuthor{ID: "tech-1", Name: "Dana", FranchiseeID: uuid.New()}

	for i := range 6 {
		_, err := service.Post(context.Background(), author, "dm:tech-2", fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	feed, err := service.Messages(author.FranchiseeID, "dm:tech-2")
	require.NoError(t, err)
	require.Len(t, feed, 5)
	assert.Equal(t, "message 5", feed[3].Text, "newest entries are kept")
	assert.Equal(t, types.ChatKindReply, feed[4].Kind)
}

func TestTechHubService_ShareJobAndActivity(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("valkey down")}
	service := NewTechHubService(publisher, 0)
	franchiseeID := uuid.New()
	author := ChatAuthor{ID: "tech-1", Name: "Dana", FranchiseeID: franchiseeID}

	share, err := service.ShareJob(context.Background(), author, types.JobShareCard{
		Category:    "Automotive",
		ServiceType: "Car Lockout",
		Location:    "Springfield",
	})
	require.NoError(t, err, "publish failures do not fail the post")
	assert.Equal(t, types.ChatKindJobShare, share.Kind)
	assert.Equal(t, "Dana completed a Car Lockout job in Springfield", share.Text)
	require.NotNil(t, share.JobShare)

	_, err = service.ShareJob(context.Background(), author, types.JobShareCard{})
	assert.True(t, errors.Is(err, types.ErrValidation))

	first := service.SynthesizeActivity(context.Background(), franchiseeID, []string{"Avery"})
	assert.Equal(t, types.ChatKindActivity, first.Kind)
	assert.Contains(t, first.Text, "Avery")

	second := service.SynthesizeActivity(context.Background(), franchiseeID, nil)
	assert.NotEqual(t, first.Text, second.Text)

	feed, err := service.Messages(franchiseeID, "group")
	require.NoError(t, err)
	assert.Len(t, feed, 3)
	assert.Equal(t, []uuid.UUID{franchiseeID}, service.ActiveFranchises())
}
