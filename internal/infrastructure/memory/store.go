package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/brickfoundation/referral-service/internal/domain"
)

type state struct {
	users         map[string]domain.User
	referrals     map[string]domain.Referral
	referralOrder []string
	referredIdx   map[string]string
	links         map[string]domain.ReferralLink
	linkOrder     []string
	tiers         []domain.ReferralTier
	rewards       map[string]domain.ReferralReward
	rewardOrder   []string
	rewardKeys    map[string]string
	payments      map[string]domain.Payment
	notifications map[string]domain.Notification
	notifyOrder   []string
}

func newState(tiers []domain.ReferralTier) *state {
	return &state{
		users:         map[string]domain.User{},
		referrals:     map[string]domain.Referral{},
		referredIdx:   map[string]string{},
		links:         map[string]domain.ReferralLink{},
		tiers:         append([]domain.ReferralTier(nil), tiers...),
		rewards:       map[string]domain.ReferralReward{},
		rewardKeys:    map[string]string{},
		payments:      map[string]domain.Payment{},
		notifications: map[string]domain.Notification{},
	}
}

// clone copies the containers. Entity values are copied by value and never
// mutated through shared pointers, so a shallow copy is enough.
func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		referrals:     maps.Clone(s.referrals),
		referralOrder: append([]string(nil), s.referralOrder...),
		referredIdx:   maps.Clone(s.referredIdx),
		links:         maps.Clone(s.links),
		linkOrder:     append([]string(nil), s.linkOrder...),
		tiers:         append([]domain.ReferralTier(nil), s.tiers...),
		rewards:       maps.Clone(s.rewards),
		rewardOrder:   append([]string(nil), s.rewardOrder...),
		rewardKeys:    maps.Clone(s.rewardKeys),
		payments:      maps.Clone(s.payments),
		notifications: maps.Clone(s.notifications),
		notifyOrder:   append([]string(nil), s.notifyOrder...),
	}
}

// Store keeps all referral data in process. Transactions run one at a time
// against a private copy that replaces the live state on commit.
type Store struct {
	mu sync.RWMutex
	st *state
}

func NewStore(tiers []domain.ReferralTier) *Store {
	return &Store{st: newState(tiers)}
}

func (s *Store) Repos() domain.Repositories {
	return (&repo{store: s}).repositories()
}

func (s *Store) InTransaction(ctx context.Context, fn func(repos domain.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn((&repo{st: work}).repositories()); err != nil {
		return err
	}
	s.st = work
	return nil
}

// repo implements every repository port. Outside a transaction it locks
// the store per call; inside one it works on the transaction's copy.
type repo struct {
	store *Store
	st    *state
}

func (r *repo) repositories() domain.Repositories {
	return domain.Repositories{
		Users:         r,
		Referrals:     r,
		Links:         r,
		Tiers:         r,
		Rewards:       r,
		Payments:      r,
		Notifications: r,
	}
}

func (r *repo) read() (*state, func()) {
	if r.store == nil {
		return r.st, func() {}
	}
	r.store.mu.RLock()
	return r.store.st, r.store.mu.RUnlock
}

func (r *repo) write() (*state, func()) {
	if r.store == nil {
		return r.st, func() {}
	}
	r.store.mu.Lock()
	return r.store.st, r.store.mu.Unlock
}
