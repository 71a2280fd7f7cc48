package seed

import (
	"palcontent/config"
	. "palcontent/internal/models"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const demoPrefix = "PAL"

func stringPtr(s string) *string {
	return &s
}

// Seed loads one demo franchise with its owner, an admin, a small crew and
// some submissions in different states.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	return db.Transaction(func(tx *gorm.DB) error {
		franchisee := &Franchisee{
			BusinessName:    "Pal Locksmith Downtown",
			OwnerName:       "Dana Ortiz",
			Email:           "owner@pal-locksmith.example",
			Phone:           "(555) 010-2000",
			CodePrefix:      demoPrefix,
			GoogleReviewURL: "https://g.page/r/pal-locksmith-downtown/review",
			Territory:       "Downtown",
			IsActive:        true,
		}
		if err := tx.Create(franchisee).Error; err != nil {
			return log.Err("failed to seed franchisee", err)
		}

		technicians := []*Technician{
			{
				FranchiseeID: franchisee.ID,
				Name:         "Sam Keller",
				Email:        "sam@pal-locksmith.example",
				Phone:        "(555) 010-0001",
				Role:         TechnicianRoleLead,
				SubmitCode:   FormatSubmitCode(demoPrefix, 1),
				Rating:       decimal.RequireFromString("4.90"),
				Specialties:  datatypes.JSONSlice[string]{"Automotive", "Access Control"},
				IsActive:     true,
			},
			{
				FranchiseeID: franchisee.ID,
				Name:         "Riley Chen",
				Email:        "riley@pal-locksmith.example",
				Phone:        "(555) 010-0002",
				SubmitCode:   FormatSubmitCode(demoPrefix, 2),
				Rating:       decimal.RequireFromString("4.70"),
				Specialties:  datatypes.JSONSlice[string]{"Residential"},
				IsActive:     true,
			},
			{
				FranchiseeID: franchisee.ID,
				Name:         "Jordan Pike",
				Phone:        "(555) 010-0003",
				Role:         TechnicianRoleApprentice,
				SubmitCode:   FormatSubmitCode(demoPrefix, 3),
				IsActive:     true,
			},
		}
		for _, technician := range technicians {
			if err := tx.Create(technician).Error; err != nil {
				return log.Err("failed to seed technician", err, "name", technician.Name)
			}
		}

		users := []*User{
			{
				AuthUserID: "seed-admin",
				Email:      stringPtr("admin@pal-locksmith.example"),
				FullName:   "Platform Admin",
				Role:       RoleAdmin,
				IsActive:   true,
			},
			{
				AuthUserID:   "seed-franchisee",
				Email:        stringPtr(franchisee.Email),
				FullName:     franchisee.OwnerName,
				Role:         RoleFranchisee,
				FranchiseeID: &franchisee.ID,
				IsActive:     true,
			},
			{
				AuthUserID:   "seed-technician",
				Email:        stringPtr(technicians[0].Email),
				FullName:     technicians[0].Name,
				Role:         RoleTechnician,
				FranchiseeID: &franchisee.ID,
				TechnicianID: &technicians[0].ID,
				IsActive:     true,
			},
		}
		for _, user := range users {
			if err := tx.Create(user).Error; err != nil {
				return log.Err("failed to seed user", err, "authUserID", user.AuthUserID)
			}
		}

		technicians[0].UserID = &users[2].ID
		technicians[0].InviteStatus = InviteStatusAccepted
		if err := tx.Save(technicians[0]).Error; err != nil {
			return log.Err("failed to link seeded technician", err)
		}

		now := time.Now().UTC()
		reviewedAt := now.Add(-2 * time.Hour)
		jobDate := now.Add(-24 * time.Hour)
		submissions := []*JobSubmission{
			{
				TechnicianID: technicians[0].ID,
				FranchiseeID: franchisee.ID,
				Client: SubmissionClient{
					Name:             "Morgan Lee",
					Phone:            "(555) 222-3344",
					Email:            "morgan@example.com",
					ConsentToContact: true,
					ConsentToShare:   true,
				},
				Service: SubmissionService{
					Category:     CategoryAutomotive,
					Type:         "Key Fob Programming",
					Location:     "Main St & 3rd Ave",
					Date:         &jobDate,
					Duration:     45,
					Satisfaction: 5,
					Description:  "Programmed two replacement fobs for a 2019 sedan.",
				},
				Vehicle: SubmissionVehicle{Year: "2019", Make: "Honda", Model: "Civic", Color: "Blue"},
				ContentFields: SubmissionContent{
					CustomerConcern:  "Lost the only working fob",
					CustomerReaction: "Relieved to drive home the same day",
				},
				Status:      SubmissionStatusApproved,
				ReviewedAt:  &reviewedAt,
				ReviewedBy:  &users[1].ID,
				Tags:        datatypes.JSONSlice[string]{"automotive", "fob"},
				SubmittedAt: now.Add(-20 * time.Hour),
			},
			{
				TechnicianID: technicians[1].ID,
				FranchiseeID: franchisee.ID,
				Client: SubmissionClient{
					Name:             "Avery Brooks",
					Phone:            "(555) 333-4455",
					ConsentToContact: true,
				},
				Service: SubmissionService{
					Category:     CategoryResidential,
					Type:         "Rekey",
					Location:     "Elm Street",
					Duration:     30,
					Satisfaction: 4,
					Description:  "Rekeyed front and back doors after move-in.",
				},
				ContentFields: SubmissionContent{SpecialChallenges: "Older cylinder with worn pins"},
				SubmittedAt:   now.Add(-3 * time.Hour),
			},
			{
				TechnicianID: technicians[2].ID,
				FranchiseeID: franchisee.ID,
				Service: SubmissionService{
					Category:    CategoryRoadside,
					Type:        "Trunk Lockout",
					Description: "Keys locked in trunk.",
				},
				Status:      SubmissionStatusFlagged,
				ReviewNotes: stringPtr("Missing customer details and photos"),
				SubmittedAt: now.Add(-1 * time.Hour),
			},
		}
		for _, submission := range submissions {
			if err := tx.Create(submission).Error; err != nil {
				return log.Err("failed to seed job submission", err, "type", submission.Service.Type)
			}
		}

		testimonial := &Testimonial{
			FranchiseeID:       franchisee.ID,
			TechnicianID:       &technicians[0].ID,
			JobSubmissionID:    &submissions[0].ID,
			CustomerName:       submissions[0].Client.Name,
			CustomerEmail:      submissions[0].Client.Email,
			Rating:             5,
			Comment:            "Fast, friendly and fair. Had new fobs in under an hour.",
			Status:             TestimonialStatusPublished,
			RedirectedToGoogle: true,
		}
		if err := tx.Create(testimonial).Error; err != nil {
			return log.Err("failed to seed testimonial", err)
		}

		smsConfig := &SMSConfig{
			FranchiseeID:       franchisee.ID,
			Provider:           SMSProviderTwilio,
			FromNumber:         "+15550102000",
			NotifyOnSubmission: true,
			NotifyOnApproval:   true,
		}
		if err := tx.Create(smsConfig).Error; err != nil {
			return log.Err("failed to seed SMS config", err)
		}

		log.Info("Seed complete",
			"franchisee", franchisee.BusinessName,
			"technicians", len(technicians),
			"submissions", len(submissions))
		return nil
	})
}
