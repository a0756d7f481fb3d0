package core

import (
	"context"
	"fmt"

	"treasuremap/pkg/domain"
)

// NewCopyPairRule returns the rule warning about an inconsistent
// "copy N of M" counter. The counter is informational, so it never blocks.
func NewCopyPairRule() domain.Rule {
	return copyPairRule{}
}

type copyPairRule struct{}

func (copyPairRule) Name() string { return "copy_pair" }

func (copyPairRule) Evaluate(_ context.Context, data domain.MapData, _ domain.Board) (domain.Result, error) {
	n, m := data.NumberOf, data.OutOf
	if n == 0 && m == 0 {
		return domain.Result{}, nil
	}
	if n > 0 && m > 0 && n <= m {
		return domain.Result{}, nil
	}
	return domain.Result{Violations: []domain.Violation{{
		Rule:     "copy_pair",
		Severity: domain.SeverityWarn,
		Message:  fmt.Sprintf("copy counter %d of %d is not shown", n, m),
	}}}, nil
}
