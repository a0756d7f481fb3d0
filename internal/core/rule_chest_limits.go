package core

import (
	"context"
	"fmt"

	"treasuremap/pkg/domain"
)

// NewChestLimitsRule returns the rule keeping chest counts within the
// selectable ranges.
func NewChestLimitsRule() domain.Rule {
	return chestLimitsRule{}
}

type chestLimitsRule struct{}

func (chestLimitsRule) Name() string { return "chest_limits" }

func (chestLimitsRule) Evaluate(_ context.Context, data domain.MapData, _ domain.Board) (domain.Result, error) {
	checks := []struct {
		name  string
		value int
		rng   domain.ChestRange
	}{
		{"small", data.Small, domain.Limits.Small},
		{"medium", data.Medium, domain.Limits.Medium},
		{"large", data.Large, domain.Limits.Large},
		{"extra large", data.ExtraLarge, domain.Limits.ExtraLarge},
	}
	res := domain.Result{}
	for _, c := range checks {
		if c.value < c.rng.Min || c.value > c.rng.Max {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "chest_limits",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s chest count %d outside %d..%d", c.name, c.value, c.rng.Min, c.rng.Max),
			})
		}
	}
	return res, nil
}
