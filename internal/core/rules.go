package core

import "treasuremap/pkg/domain"

type (
	// Rule aliases domain.Rule.
	Rule = domain.Rule
	// Result aliases domain.Result.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewTileMarkersRule())
	engine.Register(NewChestLimitsRule())
	engine.Register(NewCopyPairRule())
	return engine
}
