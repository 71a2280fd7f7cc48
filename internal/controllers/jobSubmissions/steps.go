package jobSubmissionController

import (
	"palcontent/internal/models"
	"palcontent/internal/types"
	"palcontent/internal/utils"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StepService     = 1
	StepLocation    = 2
	StepDescription = 3
	StepClient      = 4

	maxDescriptionLength = 4000
	maxTags              = 20
)

type PhotoInput struct {
	URL  string           `json:"url"`
	Type models.PhotoType `json:"type,omitempty"`
}

// SubmissionDraft is the wizard payload. Technicians submit for themselves;
// franchisees and admins name the technician.
type SubmissionDraft struct {
	TechnicianID  *uuid.UUID               `json:"technicianId,omitempty"`
	Category      models.ServiceCategory   `json:"category"`
	ServiceType   string                   `json:"serviceType"`
	Location      string                   `json:"location"`
	Date          *time.Time               `json:"date,omitempty"`
	Duration      int                      `json:"duration"`
	Satisfaction  int                      `json:"satisfaction"`
	Description   string                   `json:"description"`
	Photos        []PhotoInput             `json:"photos"`
	Client        models.SubmissionClient  `json:"client"`
	Vehicle       models.SubmissionVehicle `json:"vehicle"`
	ContentFields models.SubmissionContent `json:"contentFields"`
	Tags          []string                 `json:"tags"`
}

type StepResult struct {
	Step    int      `json:"step"`
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
}

// ValidateStep reports which required fields of a wizard step are empty.
// The client info step is optional and always passes.
func ValidateStep(draft SubmissionDraft, step int) (StepResult, error) {
	missing := []string{}

	switch step {
	case StepService:
		if !draft.Category.IsValid() {
			missing = append(missing, "category")
		}
		serviceType := strings.TrimSpace(draft.ServiceType)
		if serviceType == "" || (draft.Category.IsValid() && !draft.Category.HasServiceType(serviceType)) {
			missing = append(missing, "serviceType")
		}
	case StepLocation:
		if strings.TrimSpace(draft.Location) == "" {
			missing = append(missing, "location")
		}
		if len(photoURLs(draft.Photos)) == 0 {
			missing = append(missing, "photos")
		}
	case StepDescription:
		if strings.TrimSpace(draft.Description) == "" {
			missing = append(missing, "description")
		}
	case StepClient:
	default:
		return StepResult{}, types.NewFieldError("step must be between 1 and 4")
	}

	return StepResult{Step: step, Valid: len(missing) == 0, Missing: missing}, nil
}

func photoURLs(photos []PhotoInput) []PhotoInput {
	present := make([]PhotoInput, 0, len(photos))
	for _, photo := range photos {
		if strings.TrimSpace(photo.URL) != "" {
			present = append(present, photo)
		}
	}
	return present
}

// BuildSubmission assembles a pending JobSubmission for the technician once
// the first three steps pass. Photos without a type are filed as process photos.
func BuildSubmission(draft SubmissionDraft, technician *models.Technician) (*models.JobSubmission, error) {
	var details []string
	for _, step := range []int{StepService, StepLocation, StepDescription} {
		result, err := ValidateStep(draft, step)
		if err != nil {
			return nil, err
		}
		for _, field := range result.Missing {
			details = append(details, field+" is required")
		}
	}

	if draft.Satisfaction < 0 || draft.Satisfaction > 5 {
		details = append(details, "satisfaction must be 0 (unset) or between 1 and 5")
	}
	if draft.Duration < 0 {
		details = append(details, "duration must not be negative")
	}
	for _, photo := range draft.Photos {
		switch photo.Type {
		case "", models.PhotoTypeBefore, models.PhotoTypeAfter, models.PhotoTypeProcess:
		default:
			details = append(details, "photo type must be one of: before after process")
		}
	}
	if len(details) > 0 {
		return nil, types.NewFieldError(details...)
	}

	submission := &models.JobSubmission{
		TechnicianID: technician.ID,
		FranchiseeID: technician.FranchiseeID,
		Client:       draft.Client,
		Service: models.SubmissionService{
			Category:     draft.Category,
			Type:         strings.TrimSpace(draft.ServiceType),
			Location:     strings.TrimSpace(draft.Location),
			Date:         draft.Date,
			Duration:     draft.Duration,
			Satisfaction: draft.Satisfaction,
			Description:  utils.Truncate(strings.TrimSpace(draft.Description), maxDescriptionLength),
		},
		ContentFields: draft.ContentFields,
		Tags:          normalizeTags(draft.Tags),
		Status:        models.SubmissionStatusPending,
		SubmittedAt:   time.Now().UTC(),
	}

	if draft.Category == models.CategoryAutomotive {
		submission.Vehicle = draft.Vehicle
	}

	for _, photo := range photoURLs(draft.Photos) {
		submission.Media.Add(photo.Type, strings.TrimSpace(photo.URL))
	}

	return submission, nil
}

func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || slices.Contains(normalized, tag) {
			continue
		}
		normalized = append(normalized, tag)
		if len(normalized) == maxTags {
			break
		}
	}
	return normalized
}
