package wizard

import "github.com/AlexZinkM/launchpad-bot/internal/model"

type transition struct {
	from model.Step
	to   model.Step
	when func(*model.Session) bool
}

func always(*model.Session) bool { return true }

func branded(s *model.Session) bool { return s.Kind.Branded() }

func manual(s *model.Session) bool { return !s.Kind.Branded() }

func onMainnet(s *model.Session) bool { return s.Data.Network == model.NetworkMainnet }

func offMainnet(s *model.Session) bool { return s.Data.Network != model.NetworkMainnet }

// transitions is the full step graph. The first matching row wins.
// The liquidity sub-path is reachable only on mainnet.
var transitions = []transition{
	{from: model.StepNetwork, to: model.StepBranding, when: branded},
	{from: model.StepNetwork, to: model.StepName, when: manual},
	{from: model.StepBranding, to: model.StepLiquidityAmount, when: onMainnet},
	{from: model.StepBranding, to: model.StepLiquidityLock, when: offMainnet},
	{from: model.StepName, to: model.StepDescription, when: always},
	{from: model.StepDescription, to: model.StepSymbol, when: always},
	{from: model.StepSymbol, to: model.StepSupply, when: always},
	{from: model.StepSupply, to: model.StepLiquidityAmount, when: onMainnet},
	{from: model.StepSupply, to: model.StepLiquidityLock, when: offMainnet},
	{from: model.StepLiquidityAmount, to: model.StepDisplayedLiquidity, when: always},
	{from: model.StepDisplayedLiquidity, to: model.StepLiquidityLock, when: always},
	{from: model.StepLiquidityLock, to: model.StepMintAuthority, when: always},
	{from: model.StepMintAuthority, to: model.StepSummary, when: always},
}

// nextStep returns the step after s.Step given the answers so far.
func nextStep(s *model.Session) (model.Step, bool) {
	for _, t := range transitions {
		if t.from == s.Step && t.when(s) {
			return t.to, true
		}
	}
	return "", false
}

// Path lists the steps a session visits, in order, given its current answers.
func Path(s *model.Session) []model.Step {
	probe := s.Clone()
	probe.Step = model.StepNetwork
	steps := []model.Step{probe.Step}
	for {
		next, ok := nextStep(probe)
		if !ok {
			return steps
		}
		steps = append(steps, next)
		probe.Step = next
	}
}

// position returns the 1-based index of the current step and the path length.
func position(s *model.Session) (int, int) {
	steps := Path(s)
	for i, step := range steps {
		if step == s.Step {
			return i + 1, len(steps)
		}
	}
	return 0, len(steps)
}
