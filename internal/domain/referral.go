package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ReferralStatus string

const (
	ReferralPending ReferralStatus = "pending"
	ReferralActive  ReferralStatus = "active"
	ReferralExpired ReferralStatus = "expired"
)

// ReferralSource records how the referred party was attributed.
type ReferralSource string

const (
	SourceLink   ReferralSource = "link"
	SourceInvite ReferralSource = "invite"
)

// Referral is a directed edge referrer -> referred. ReferredID stays empty
// for e-mail invites until the invitee registers.
type Referral struct {
	ID            string
	ReferrerID    string
	ReferredID    string
	ReferredEmail string
	LinkID        string
	Source        ReferralSource
	Status        ReferralStatus
	TotalRewards  decimal.Decimal
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

func (r *Referral) CanActivate() bool {
	return r.Status == ReferralPending && r.ReferredID != ""
}

// ReferralEdgeError checks the write-time graph invariants for a new edge.
// referredIsAncestor must report whether referredID already appears on the
// referrer's chain of referrers.
func ReferralEdgeError(referrerID, referredID string, referredIsAncestor bool) error {
	if referrerID == referredID {
		return ErrSelfReferral
	}
	if referredIsAncestor {
		return ErrReferralCycle
	}
	return nil
}

type ReferralRepository interface {
	// LockGraph serializes edge inserts for the rest of the transaction so
	// two concurrent inserts cannot close a cycle between them.
	LockGraph(ctx context.Context) error
	// IsAncestor reports whether candidateID is on the referrer chain above userID.
	IsAncestor(ctx context.Context, candidateID, userID string) (bool, error)
	CreateReferral(ctx context.Context, referral *Referral) error
	GetReferralByReferredID(ctx context.Context, referredID string) (*Referral, error)
	// FindPendingInvite returns the oldest pending e-mail invite for email.
	// An empty referrerID matches invites from any referrer.
	FindPendingInvite(ctx context.Context, referrerID, email string) (*Referral, error)
	AttachReferred(ctx context.Context, referralID, referredID string) error
	UpdateReferralStatus(ctx context.Context, referralID string, status ReferralStatus, completedAt *time.Time) error
	AddReferralRewards(ctx context.Context, referralID string, amount decimal.Decimal) error
	ListReferralsByReferrer(ctx context.Context, referrerID string) ([]*Referral, error)
	CountReferralsByStatus(ctx context.Context, referrerID string) (map[ReferralStatus]int, error)
	// Subtree returns every active edge reachable from rootID within maxDepth hops.
	Subtree(ctx context.Context, rootID string, maxDepth int) ([]TreeEdge, error)
	ExpirePendingReferrals(ctx context.Context, createdBefore time.Time) (int64, error)
}
