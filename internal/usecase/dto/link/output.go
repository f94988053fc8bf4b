package linkdto

import (
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
)

type LinkOutput struct {
	ID        string
	Code      string
	Status    domain.LinkStatus
	BatchID   string
	ShareURL  string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

type ResolvedLinkOutput struct {
	Code     string
	Referrer domain.UserProfile
}
