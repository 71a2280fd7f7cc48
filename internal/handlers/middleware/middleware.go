package middleware

import (
	"palcontent/internal/database"
	"palcontent/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
)

// Middleware resolves bearer tokens to local users and guards routes by role
// or shared secret.
type Middleware struct {
	DB       database.DB
	userRepo repositories.UserRepository
	log      logger.Logger
}

func New(db database.DB, repos repositories.Repository) Middleware {
	return Middleware{
		DB:       db,
		userRepo: repos.User,
		log:      logger.New("middleware"),
	}
}
