package smsController

import (
	"context"
	"errors"
	"palcontent/config"
	"palcontent/internal/database"
	"palcontent/internal/models"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/types"
	"palcontent/internal/utils"
	"sort"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxTemplateLength = 640

type smsProvider interface {
	Send(ctx context.Context, smsConfig *models.SMSConfig, to string, body string) (services.SMSResult, error)
	Verify(ctx context.Context, smsConfig *models.SMSConfig) error
}

type rateLimiter interface {
	AllowFranchise(ctx context.Context, limit services.RateLimit, franchiseeID uuid.UUID) error
}

// ConfigView is the read shape of a franchise SMS config. The auth token is
// only ever returned masked.
type ConfigView struct {
	FranchiseeID       uuid.UUID          `json:"franchiseeId"`
	Provider           models.SMSProvider `json:"provider"`
	AccountSID         string             `json:"accountSid"`
	AuthToken          string             `json:"authToken"`
	HasAuthToken       bool               `json:"hasAuthToken"`
	FromNumber         string             `json:"fromNumber"`
	Enabled            bool               `json:"enabled"`
	Configured         bool               `json:"configured"`
	NotifyOnSubmission bool               `json:"notifyOnSubmission"`
	NotifyOnApproval   bool               `json:"notifyOnApproval"`
	Templates          map[string]string  `json:"templates"`
}

type ConfigRequest struct {
	FranchiseeID       *uuid.UUID         `json:"franchiseeId,omitempty"`
	Provider           models.SMSProvider `json:"provider"              validate:"omitempty,oneof=twilio sns"`
	AccountSID         string             `json:"accountSid"`
	AuthToken          string             `json:"authToken,omitempty"`
	FromNumber         string             `json:"fromNumber"`
	Enabled            bool               `json:"enabled"`
	NotifyOnSubmission bool               `json:"notifyOnSubmission"`
	NotifyOnApproval   bool               `json:"notifyOnApproval"`
	Templates          map[string]string  `json:"templates,omitempty"`
}

type TestRequest struct {
	FranchiseeID *uuid.UUID `json:"franchiseeId,omitempty"`
	To           string     `json:"to,omitempty"`
}

type TestResult struct {
	Verified bool                `json:"verified"`
	Message  *services.SMSResult `json:"message,omitempty"`
}

// SendRequest carries either a literal message or a template name with variables.
type SendRequest struct {
	FranchiseeID *uuid.UUID        `json:"franchiseeId,omitempty"`
	To           string            `json:"to"`
	Message      string            `json:"message,omitempty"`
	Template     string            `json:"template,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
}

type SMSController struct {
	repos   repositories.Repository
	db      database.DB
	config  config.Config
	sms     smsProvider
	limiter rateLimiter
	log     logger.Logger
}

type SMSControllerInterface interface {
	GetConfig(ctx context.Context, user *models.User, franchiseeID *uuid.UUID) (*ConfigView, error)
	SaveConfig(ctx context.Context, user *models.User, req ConfigRequest) (*ConfigView, error)
	Test(ctx context.Context, user *models.User, req TestRequest) (*TestResult, error)
	Send(ctx context.Context, user *models.User, req SendRequest) (*services.SMSResult, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) SMSControllerInterface {
	return &SMSController{
		repos:   repos,
		db:      db,
		config:  config,
		sms:     services.SMS,
		limiter: services.RateLimiter,
		log:     logger.New("smsController"),
	}
}

func (c *SMSController) franchise(ctx context.Context, user *models.User, requested *uuid.UUID) (uuid.UUID, error) {
	log := c.log.TraceFromContext(ctx).Function("franchise")

	if !user.HasRole(models.RoleAdmin, models.RoleFranchisee) {
		return uuid.Nil, log.Err("sms settings are managed by franchisees", types.ErrForbidden, "userID", user.ID)
	}
	id, ok := user.FranchiseFor(requested)
	if !ok {
		return uuid.Nil, log.Err("franchise not accessible", types.NewFieldError("franchiseeId is required"), "userID", user.ID)
	}
	return id, nil
}

// stored returns the franchise config, or nil when none has been saved.
func (c *SMSController) stored(ctx context.Context, franchiseeID uuid.UUID) (*models.SMSConfig, error) {
	smsConfig, err := c.repos.SMSConfig.GetByFranchisee(ctx, c.db.SQL, franchiseeID)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	return smsConfig, err
}

func (c *SMSController) GetConfig(
	ctx context.Context,
	user *models.User,
	franchiseeID *uuid.UUID,
) (*ConfigView, error) {
	id, err := c.franchise(ctx, user, franchiseeID)
	if err != nil {
		return nil, err
	}

	smsConfig, err := c.stored(ctx, id)
	if err != nil {
		return nil, err
	}
	if smsConfig == nil {
		smsConfig = &models.SMSConfig{FranchiseeID: id, Provider: models.SMSProviderTwilio}
	}
	return NewConfigView(smsConfig), nil
}

func NewConfigView(smsConfig *models.SMSConfig) *ConfigView {
	templates := make(map[string]string, len(models.DefaultSMSTemplates))
	for name := range models.DefaultSMSTemplates {
		templates[name] = smsConfig.Template(name)
	}

	return &ConfigView{
		FranchiseeID:       smsConfig.FranchiseeID,
		Provider:           smsConfig.Provider,
		AccountSID:         smsConfig.AccountSID,
		AuthToken:          smsConfig.MaskedAuthToken(),
		HasAuthToken:       smsConfig.AuthToken != "",
		FromNumber:         smsConfig.FromNumber,
		Enabled:            smsConfig.Enabled,
		Configured:         smsConfig.IsConfigured(),
		NotifyOnSubmission: smsConfig.NotifyOnSubmission,
		NotifyOnApproval:   smsConfig.NotifyOnApproval,
		Templates:          templates,
	}
}

// SaveConfig upserts the franchise config. An empty auth token keeps the
// stored one so the masked value never has to be sent back.
func (c *SMSController) SaveConfig(
	ctx context.Context,
	user *models.User,
	req ConfigRequest,
) (*ConfigView, error) {
	log := c.log.TraceFromContext(ctx).Function("SaveConfig")

	franchiseeID, err := c.franchise(ctx, user, req.FranchiseeID)
	if err != nil {
		return nil, err
	}

	details := utils.ValidateStruct(req)
	fromNumber := strings.TrimSpace(req.FromNumber)
	if fromNumber != "" {
		if !utils.IsValidPhone(fromNumber) {
			details = append(details, "fromNumber must be a valid phone number")
		}
		fromNumber = utils.NormalizePhone(fromNumber)
	}
	templates, templateDetails := cleanTemplates(req.Templates)
	details = append(details, templateDetails...)
	if len(details) > 0 {
		return nil, log.Err("invalid sms config", types.NewFieldError(details...), "franchiseeID", franchiseeID)
	}

	existing, err := c.stored(ctx, franchiseeID)
	if err != nil {
		return nil, err
	}

	provider := req.Provider
	if provider == "" {
		provider = models.SMSProviderTwilio
	}
	authToken := strings.TrimSpace(req.AuthToken)
	if authToken == "" && existing != nil {
		authToken = existing.AuthToken
	}

	smsConfig := &models.SMSConfig{
		FranchiseeID:       franchiseeID,
		Provider:           provider,
		AccountSID:         strings.TrimSpace(req.AccountSID),
		AuthToken:          authToken,
		FromNumber:         fromNumber,
		Enabled:            req.Enabled,
		NotifyOnSubmission: req.NotifyOnSubmission,
		NotifyOnApproval:   req.NotifyOnApproval,
		Templates:          datatypes.NewJSONType(templates),
	}

	if smsConfig.Enabled && provider == models.SMSProviderTwilio && !smsConfig.IsConfigured() {
		return nil, log.Err("incomplete twilio config",
			types.NewFieldError("accountSid, authToken and fromNumber are required to enable twilio"))
	}

	if err := c.repos.SMSConfig.Upsert(ctx, c.db.SQL, smsConfig); err != nil {
		return nil, err
	}

	log.Info("sms config saved", "franchiseeID", franchiseeID, "provider", provider, "enabled", smsConfig.Enabled)
	return NewConfigView(smsConfig), nil
}

// cleanTemplates keeps overrides for known templates only. Blank overrides
// fall back to the default template.
func cleanTemplates(input map[string]string) (map[string]string, []string) {
	templates := make(map[string]string, len(input))
	var details []string

	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := models.DefaultSMSTemplates[name]; !ok {
			details = append(details, "unknown template "+name)
			continue
		}
		body := strings.TrimSpace(input[name])
		if body == "" {
			continue
		}
		if len([]rune(body)) > maxTemplateLength {
			details = append(details, "template "+name+" is too long")
			continue
		}
		templates[name] = body
	}
	return templates, details
}

// Test verifies the stored credentials and, when a destination is given,
// sends the test template to it.
func (c *SMSController) Test(ctx context.Context, user *models.User, req TestRequest) (*TestResult, error) {
	log := c.log.TraceFromContext(ctx).Function("Test")

	franchiseeID, err := c.franchise(ctx, user, req.FranchiseeID)
	if err != nil {
		return nil, err
	}

	smsConfig, err := c.stored(ctx, franchiseeID)
	if err != nil {
		return nil, err
	}

	if err := c.sms.Verify(ctx, smsConfig); err != nil {
		return nil, log.Err("sms verification failed", err, "franchiseeID", franchiseeID)
	}

	result := &TestResult{Verified: true}
	if strings.TrimSpace(req.To) == "" {
		return result, nil
	}

	if err := c.limiter.AllowFranchise(ctx, services.SMSSendLimit, franchiseeID); err != nil {
		return nil, err
	}

	body := models.RenderTemplate(c.template(smsConfig, models.TemplateTest), map[string]string{
		"business": c.businessName(ctx, franchiseeID),
	})
	sent, err := c.sms.Send(ctx, smsConfig, req.To, body)
	if err != nil {
		return nil, err
	}
	result.Message = &sent
	return result, nil
}

func (c *SMSController) Send(ctx context.Context, user *models.User, req SendRequest) (*services.SMSResult, error) {
	log := c.log.TraceFromContext(ctx).Function("Send")

	franchiseeID, err := c.franchise(ctx, user, req.FranchiseeID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.To) == "" {
		return nil, log.Err("missing destination", types.NewFieldError("to is required"))
	}

	smsConfig, err := c.stored(ctx, franchiseeID)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(req.Message)
	if body == "" && req.Template != "" {
		if _, ok := models.DefaultSMSTemplates[req.Template]; !ok {
			return nil, log.Err("unknown template", types.NewFieldError("unknown template "+req.Template))
		}
		variables := map[string]string{"business": c.businessName(ctx, franchiseeID)}
		for key, value := range req.Variables {
			variables[key] = value
		}
		body = models.RenderTemplate(c.template(smsConfig, req.Template), variables)
	}
	if body == "" {
		return nil, log.Err("missing body", types.NewFieldError("message or template is required"))
	}

	if err := c.limiter.AllowFranchise(ctx, services.SMSSendLimit, franchiseeID); err != nil {
		return nil, err
	}

	result, err := c.sms.Send(ctx, smsConfig, req.To, body)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *SMSController) template(smsConfig *models.SMSConfig, name string) string {
	if smsConfig == nil {
		return models.DefaultSMSTemplates[name]
	}
	return smsConfig.Template(name)
}

func (c *SMSController) businessName(ctx context.Context, franchiseeID uuid.UUID) string {
	franchisee, err := c.repos.Franchisee.GetByID(ctx, c.db.SQL, franchiseeID)
	if err != nil {
		c.log.Function("businessName").Warn("failed to load franchisee", "franchiseeID", franchiseeID, "error", err)
		return ""
	}
	return franchisee.BusinessName
}
