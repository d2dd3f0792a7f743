// Package neuro models the agent's global chemical state: three bounded
// scalars that bias every downstream component. State is a value type passed
// explicitly into component calls; the orchestrator holds the single mutable
// copy and rewrites it only at the outcome step of a tick.
package neuro

// #region config

// Config bounds and tunes the chemical state.
type Config struct {
	Cap          float64 // upper bound for all three scalars
	LearningRate float64 // RPE → dopamine step size
}

// DefaultConfig returns the standard bounds.
func DefaultConfig() Config {
	return Config{
		Cap:          2.0,
		LearningRate: 0.25,
	}
}

// #endregion config

// #region state

// State holds the three neuromodulator levels, each in [0, cap].
type State struct {
	Dopamine       float64
	Serotonin      float64
	Norepinephrine float64

	cap          float64
	learningRate float64
}

// NewState returns a State at baseline levels under the given config.
func NewState(cfg Config) State {
	return State{
		Dopamine:       0.5,
		Serotonin:      0.5,
		Norepinephrine: 0.5,
		cap:            cfg.Cap,
		learningRate:   cfg.LearningRate,
	}
}

// Cap returns the configured upper bound.
func (s State) Cap() float64 {
	return s.cap
}

// #endregion state

// #region rpe

// ApplyRPE returns the state after a reward-prediction-error update:
// dopamine moves by rpe * learning rate, clamped into [0, cap]. This is the
// only feedback path through which experience moves future behavior.
func (s State) ApplyRPE(rpe float64) State {
	s.Dopamine = clamp(s.Dopamine+rpe*s.learningRate, 0, s.cap)
	return s
}

// #endregion rpe

// #region regulation

// Regulate applies top-down control: calm raises serotonin and lowers
// norepinephrine, focus raises norepinephrine. External override path, not
// part of the per-tick hot loop.
func (s State) Regulate(focus, calm bool) State {
	if calm {
		s.Serotonin = clamp(s.Serotonin+0.2, 0, s.cap)
		s.Norepinephrine = clamp(s.Norepinephrine-0.1, 0, s.cap)
	}
	if focus {
		s.Norepinephrine = clamp(s.Norepinephrine+0.2, 0, s.cap)
	}
	return s
}

// Override sets any of the three levels directly (negative means keep).
func (s State) Override(dopamine, serotonin, norepinephrine float64) State {
	if dopamine >= 0 {
		s.Dopamine = clamp(dopamine, 0, s.cap)
	}
	if serotonin >= 0 {
		s.Serotonin = clamp(serotonin, 0, s.cap)
	}
	if norepinephrine >= 0 {
		s.Norepinephrine = clamp(norepinephrine, 0, s.cap)
	}
	return s
}

// #endregion regulation

// #region cocktail

// Mode labels the processing disposition implied by the chemical state.
type Mode string

const (
	ModeFlow    Mode = "flow"    // high dopamine + high norepinephrine
	ModeAnxious Mode = "anxious" // low serotonin + high norepinephrine
	ModeBurnout Mode = "burnout" // low dopamine + low norepinephrine
	ModeZen     Mode = "zen"     // high serotonin
	ModeNeutral Mode = "neutral"
)

// Cocktail is the translation of chemical levels into collaborator-facing
// parameters: a sampling temperature and a disposition label.
type Cocktail struct {
	Temperature float64
	Mode        Mode
}

// Cocktail derives the current collaborator profile. High dopamine pushes
// temperature up, high serotonin pulls it down.
func (s State) Cocktail() Cocktail {
	temp := clamp(0.5+s.Dopamine*0.4-s.Serotonin*0.3, 0.1, 1.0)

	mode := ModeNeutral
	switch {
	case s.Dopamine > 0.7 && s.Norepinephrine > 0.7:
		mode = ModeFlow
	case s.Serotonin < 0.3 && s.Norepinephrine > 0.7:
		mode = ModeAnxious
	case s.Dopamine < 0.3 && s.Norepinephrine < 0.3:
		mode = ModeBurnout
	case s.Serotonin > 0.8:
		mode = ModeZen
	}

	return Cocktail{Temperature: temp, Mode: mode}
}

// #endregion cocktail

// #region helpers

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
