package services

import (
	"context"
	"fmt"
	"palcontent/internal/events"
	"palcontent/internal/metrics"
	"palcontent/internal/types"
	"palcontent/internal/utils"
	"slices"
	"strings"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

const (
	assistantID       = "tech-hub-assistant"
	assistantName     = "PAL Assistant"
	maxChatMessageLen = 2000
	defaultFeedSize   = 200
)

type responseCategory string

const (
	categoryLockout      responseCategory = "lockout"
	categoryAutomotive   responseCategory = "automotive"
	categoryPricing      responseCategory = "pricing"
	categorySafe         responseCategory = "safe"
	categoryTroubleshoot responseCategory = "troubleshooting"
	categoryGeneral      responseCategory = "general"
)

var categoryKeywords = []struct {
	category responseCategory
	keywords []string
}{
	{categoryLockout, []string{"lockout", "locked out", "locked", "lock out"}},
	{categoryAutomotive, []string{"car", "key fob", "fob", "transponder", "ignition", "vehicle"}},
	{categoryPricing, []string{"price", "pricing", "quote", "charge", "cost"}},
	{categorySafe, []string{"safe", "vault", "combination"}},
	{categoryTroubleshoot, []string{"stuck", "broken", "help", "jammed", "won't", "wont"}},
}

var responsePools = map[responseCategory][]string{
	categoryLockout: {
		"Try a bump-free approach first: air wedge plus a long-reach tool saves the door finish.",
		"For residential lockouts, check for an unlocked secondary entry before picking.",
		"Document the ID check in the job notes. It protects you and the franchise.",
	},
	categoryAutomotive: {
		"Confirm the year, make and model before cutting. Transponder chips vary within a model year.",
		"If the fob won't pair, reset the BCM and try the onboard programming sequence again.",
		"Snap a photo of the VIN plate for the submission. It helps the review team.",
	},
	categoryPricing: {
		"Quote the service call and labor separately so the customer sees the breakdown.",
		"Check the franchise price sheet for after-hours multipliers before quoting.",
	},
	categorySafe: {
		"Never drill without confirming ownership paperwork. Log it in the submission.",
		"Try the factory reset combination for the model before manipulation.",
	},
	categoryTroubleshoot: {
		"Lubricate with dry graphite and work the key gently; wet lubricants attract grit.",
		"A jammed cylinder is often a failed driver pin. Rekeying usually beats replacement.",
		"Post a photo of the hardware here and the team can weigh in.",
	},
	categoryGeneral: {
		"Thanks for sharing! Remember to capture before and after photos for your submission.",
		"Great question. Anyone on the team run into this recently?",
		"Noted. Keep the customer updated with an ETA while you work.",
	},
}

var activityTemplates = []string{
	"%s just wrapped up a %s job and submitted photos for review.",
	"%s completed a %s call. Nice work!",
	"%s finished a %s job ahead of schedule.",
}

var activityServices = []string{
	"Lock Installation", "Car Lockout", "Rekey", "Key Fob Programming", "Access Control", "Emergency Lockout",
}

var defaultRoster = []string{"Alex", "Jordan", "Sam", "Riley", "Morgan"}

// SelectResponse picks pool[seed mod len(pool)]. An empty pool yields "".
func SelectResponse(seed int, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	index := seed % len(pool)
	if index < 0 {
		index += len(pool)
	}
	return pool[index]
}

// SeedFor hashes a message as its length plus the sum of its code points.
func SeedFor(message string) int {
	seed := 0
	for _, r := range message {
		seed += 1 + int(r)
	}
	return seed
}

func classifyMessage(message string) responseCategory {
	lower := strings.ToLower(message)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.category
			}
		}
	}
	return categoryGeneral
}

// ReplyFor returns the deterministic assistant reply to a message.
func ReplyFor(message string) string {
	return SelectResponse(SeedFor(message), responsePools[classifyMessage(message)])
}

// ValidRoom accepts the group room and private rooms of the form dm:<id>.
func ValidRoom(room string) bool {
	if room == types.TechHubGroupRoom {
		return true
	}
	id, ok := strings.CutPrefix(room, types.TechHubDMPrefix)
	return ok && strings.TrimSpace(id) != "" && !strings.ContainsAny(id, " \t\n")
}

// dmOwner resolves the user a private room belongs to. A suffix that is not a
// user id resolves to uuid.Nil so the message reaches no one live.
func dmOwner(room string) (uuid.UUID, bool) {
	id, private := strings.CutPrefix(room, types.TechHubDMPrefix)
	if !private {
		return uuid.Nil, false
	}
	owner, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, true
	}
	return owner, true
}

type ChatAuthor struct {
	ID           string
	Name         string
	FranchiseeID uuid.UUID
}

type feed struct {
	messages []types.ChatMessage
	size     int
}

func (f *feed) add(message types.ChatMessage) {
	f.messages = append(f.messages, message)
	if overflow := len(f.messages) - f.size; overflow > 0 {
		f.messages = slices.Delete(f.messages, 0, overflow)
	}
}

// TechHubService keeps per-franchise chat feeds in memory and fans new
// entries out over the event bus.
type TechHubService struct {
	log       logger.Logger
	publisher events.Publisher
	feedSize  int
	now       func() time.Time

	mu       sync.RWMutex
	feeds    map[string]*feed
	activity int
}

func NewTechHubService(publisher events.Publisher, feedSize int) *TechHubService {
	if feedSize <= 0 {
		feedSize = defaultFeedSize
	}

	return &TechHubService{
		log:       logger.New("TechHubService"),
		publisher: publisher,
		feedSize:  feedSize,
		now:       func() time.Time { return time.Now().UTC() },
		feeds:     make(map[string]*feed),
	}
}

func feedKey(franchiseeID uuid.UUID, room string) string {
	return franchiseeID.String() + "/" + room
}

// Messages returns a copy of the room feed, oldest first.
func (s *TechHubService) Messages(franchiseeID uuid.UUID, room string) ([]types.ChatMessage, error) {
	if !ValidRoom(room) {
		return nil, s.log.Function("Messages").Err("invalid room", types.ErrValidation, "room", room)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.feeds[feedKey(franchiseeID, room)]
	if !ok {
		return []types.ChatMessage{}, nil
	}
	return slices.Clone(f.messages), nil
}

// Post appends the author's message and the assistant's reply to the room.
func (s *TechHubService) Post(
	ctx context.Context,
	author ChatAuthor,
	room string,
	text string,
) ([]types.ChatMessage, error) {
	log := s.log.TraceFromContext(ctx).Function("Post")

	if !ValidRoom(room) {
		return nil, log.Err("invalid room", types.ErrValidation, "room", room)
	}

	text, _ = utils.CleanUTF8(strings.TrimSpace(text))
	if text == "" {
		return nil, log.Err("message text is required", types.ErrValidation)
	}
	text = utils.Truncate(text, maxChatMessageLen)

	message := s.newMessage(room, types.ChatKindMessage, author.ID, author.Name, text)
	reply := s.newMessage(room, types.ChatKindReply, assistantID, assistantName, ReplyFor(text))

	s.append(author.FranchiseeID, message, reply)
	s.publish(ctx, author.FranchiseeID, message, reply)

	return []types.ChatMessage{message, reply}, nil
}

// ShareJob posts a job completion card to the group room.
func (s *TechHubService) ShareJob(
	ctx context.Context,
	author ChatAuthor,
	card types.JobShareCard,
) (types.ChatMessage, error) {
	log := s.log.TraceFromContext(ctx).Function("ShareJob")

	if strings.TrimSpace(card.ServiceType) == "" || strings.TrimSpace(card.Category) == "" {
		return types.ChatMessage{}, log.Err("job share requires category and service type", types.ErrValidation)
	}

	text := fmt.Sprintf("%s completed a %s job", author.Name, card.ServiceType)
	if card.Location != "" {
		text += " in " + card.Location
	}
	message := s.newMessage(types.TechHubGroupRoom, types.ChatKindJobShare, author.ID, author.Name, text)
	message.JobShare = &card

	s.append(author.FranchiseeID, message)
	s.publish(ctx, author.FranchiseeID, message)

	return message, nil
}

// SynthesizeActivity posts a job-completion entry for someone on the roster.
func (s *TechHubService) SynthesizeActivity(
	ctx context.Context,
	franchiseeID uuid.UUID,
	roster []string,
) types.ChatMessage {
	if len(roster) == 0 {
		roster = defaultRoster
	}

	s.mu.Lock()
	tick := s.activity
	s.activity++
	s.mu.Unlock()

	name := SelectResponse(tick, roster)
	service := SelectResponse(tick*7+3, activityServices)
	text := fmt.Sprintf(SelectResponse(tick, activityTemplates), name, service)

	message := s.newMessage(types.TechHubGroupRoom, types.ChatKindActivity, assistantID, assistantName, text)
	s.append(franchiseeID, message)
	s.publish(ctx, franchiseeID, message)

	return message
}

// ActiveFranchises lists franchises with at least one feed.
func (s *TechHubService) ActiveFranchises() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for key := range s.feeds {
		prefix, _, _ := strings.Cut(key, "/")
		id, err := uuid.Parse(prefix)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (s *TechHubService) newMessage(
	room string,
	kind types.ChatMessageKind,
	authorID string,
	authorName string,
	text string,
) types.ChatMessage {
	return types.ChatMessage{
		ID:         uuid.NewString(),
		Room:       room,
		Kind:       kind,
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       text,
		CreatedAt:  s.now(),
	}
}

func (s *TechHubService) append(franchiseeID uuid.UUID, messages ...types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, message := range messages {
		key := feedKey(franchiseeID, message.Room)
		f, ok := s.feeds[key]
		if !ok {
			f = &feed{size: s.feedSize}
			s.feeds[key] = f
		}
		f.add(message)
		metrics.TechHubMessages.WithLabelValues(string(message.Kind)).Inc()
	}
}

func (s *TechHubService) publish(ctx context.Context, franchiseeID uuid.UUID, messages ...types.ChatMessage) {
	if s.publisher == nil {
		return
	}
	log := s.log.TraceFromContext(ctx).Function("publish")

	for _, message := range messages {
		event := events.Event{
			Type:         events.TECH_HUB_MESSAGE,
			FranchiseeID: &franchiseeID,
			Data:         map[string]any{"room": message.Room, "message": message},
		}
		if owner, private := dmOwner(message.Room); private {
			event.UserID = &owner
		}
		err := s.publisher.Publish(events.TECH_HUB_CHANNEL, event)
		if err != nil {
			log.Warn("failed to publish tech hub message", "error", err, "messageID", message.ID)
		}
	}
}
