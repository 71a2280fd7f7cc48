package repositories

import (
	"errors"
	"fmt"
	"palcontent/internal/database"
	"palcontent/internal/types"

	"gorm.io/gorm"
)

type Repository struct {
	User          UserRepository
	Franchisee    FranchiseeRepository
	Technician    TechnicianRepository
	JobSubmission JobSubmissionRepository
	SMSConfig     SMSConfigRepository
	Testimonial   TestimonialRepository
	ReviewRequest ReviewRequestRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:          NewUserRepository(db.Cache.User),
		Franchisee:    NewFranchiseeRepository(db.Cache.User),
		Technician:    NewTechnicianRepository(db.Cache.User),
		JobSubmission: NewJobSubmissionRepository(),
		SMSConfig:     NewSMSConfigRepository(),
		Testimonial:   NewTestimonialRepository(),
		ReviewRequest: NewReviewRequestRepository(),
	}
}

// notFound maps gorm's missing-row error onto the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", types.ErrNotFound, err)
	}
	return err
}
