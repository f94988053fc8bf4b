package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type ReferralTier struct {
	ID               string
	Name             string
	Level            int
	MinReferrals     int
	RewardMultiplier decimal.Decimal
	Benefits         []string
}

// BaseTier applies when no configured tier matches a referral count.
var BaseTier = ReferralTier{
	ID:               "base",
	Name:             "Base",
	Level:            0,
	MinReferrals:     0,
	RewardMultiplier: decimal.NewFromInt(1),
}

type TierResolution struct {
	Current         ReferralTier
	Next            *ReferralTier
	ReferralsToNext int
	// Progress is the percentage of the way from Current to Next.
	Progress float64
}

// ValidateTiers checks that tiers are ordered by level ascending with
// strictly increasing levels and thresholds.
func ValidateTiers(tiers []ReferralTier) error {
	for i, t := range tiers {
		if t.MinReferrals < 0 {
			return fmt.Errorf("tier %q has negative threshold: %w", t.Name, ErrTierConfig)
		}
		if !t.RewardMultiplier.IsPositive() {
			return fmt.Errorf("tier %q: %w", t.Name, ErrInvalidMultiplier)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if t.Level <= prev.Level {
			return fmt.Errorf("tier %q level %d after level %d: %w", t.Name, t.Level, prev.Level, ErrTierConfig)
		}
		if t.MinReferrals <= prev.MinReferrals {
			return fmt.Errorf("tier %q threshold %d after %d: %w", t.Name, t.MinReferrals, prev.MinReferrals, ErrTierConfig)
		}
	}
	return nil
}

// ResolveTier finds the highest tier whose threshold is met by count.
func ResolveTier(count int, tiers []ReferralTier) (TierResolution, error) {
	if count < 0 {
		return TierResolution{}, ErrNegativeCount
	}
	if err := ValidateTiers(tiers); err != nil {
		return TierResolution{}, err
	}

	current := BaseTier
	idx := -1
	for i := len(tiers) - 1; i >= 0; i-- {
		if tiers[i].MinReferrals <= count {
			current = tiers[i]
			idx = i
			break
		}
	}

	res := TierResolution{Current: current, Progress: 100}
	if idx+1 < len(tiers) {
		next := tiers[idx+1]
		res.Next = &next
		res.ReferralsToNext = max(0, next.MinReferrals-count)
		span := next.MinReferrals - current.MinReferrals
		if span > 0 {
			res.Progress = float64(count-current.MinReferrals) / float64(span) * 100
		}
	}
	return res, nil
}

// TiersCrossed lists the tiers above fromLevel up to and including toLevel.
func TiersCrossed(tiers []ReferralTier, fromLevel, toLevel int) []ReferralTier {
	var crossed []ReferralTier
	for _, t := range tiers {
		if t.Level > fromLevel && t.Level <= toLevel {
			crossed = append(crossed, t)
		}
	}
	return crossed
}

type TierRepository interface {
	// ListTiers returns all tiers ordered by level ascending.
	ListTiers(ctx context.Context) ([]ReferralTier, error)
}

// DefaultTiers mirrors the tier seed shipped with the schema migrations.
func DefaultTiers() []ReferralTier {
	return []ReferralTier{
		{ID: "starter", Name: "Starter", Level: 1, MinReferrals: 0, RewardMultiplier: decimal.NewFromInt(1),
			Benefits: []string{"Personal referral links"}},
		{ID: "builder", Name: "Builder", Level: 2, MinReferrals: 5, RewardMultiplier: decimal.NewFromFloat(1.5),
			Benefits: []string{"1.5x referral rewards", "Builder badge"}},
		{ID: "foundation", Name: "Foundation", Level: 3, MinReferrals: 20, RewardMultiplier: decimal.NewFromInt(2),
			Benefits: []string{"2x referral rewards", "Quarterly impact report"}},
		{ID: "cornerstone", Name: "Cornerstone", Level: 4, MinReferrals: 50, RewardMultiplier: decimal.NewFromInt(3),
			Benefits: []string{"3x referral rewards", "Annual donor recognition"}},
	}
}
