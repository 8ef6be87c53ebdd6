package hook

import "strings"

// Stage identifies when a hook runs relative to the wrapped function.
type Stage string

// The four hook stages, in execution order.
const (
	// StageOnceBefore hooks run before the next call only, then are cleared.
	StageOnceBefore Stage = "oncebefore"
	// StageBefore hooks run before every call.
	StageBefore Stage = "before"
	// StageAfter hooks run after every call, as deferred work.
	StageAfter Stage = "after"
	// StageOnceAfter hooks run after the next call only, as deferred work.
	StageOnceAfter Stage = "onceafter"
)

// Stages returns the four stages in execution order.
func Stages() []Stage {
	return []Stage{StageOnceBefore, StageBefore, StageOnceAfter, StageAfter}
}

// Valid reports whether s is one of the four recognized stages.
func (s Stage) Valid() bool {
	switch s {
	case StageOnceBefore, StageBefore, StageAfter, StageOnceAfter:
		return true
	}
	return false
}

// IsBefore reports whether hooks of this stage run before the wrapped function.
func (s Stage) IsBefore() bool {
	return s == StageOnceBefore || s == StageBefore
}

// IsOnce reports whether the stage is cleared after firing.
func (s Stage) IsOnce() bool {
	return s == StageOnceBefore || s == StageOnceAfter
}

// String returns the stage tag.
func (s Stage) String() string {
	return string(s)
}

// ParseStage parses a stage tag. Matching ignores case, and the once stages
// also accept "once_before" and "once-before" style spellings.
func ParseStage(s string) (Stage, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "", "-", "").Replace(norm)

	stage := Stage(norm)
	if !stage.Valid() {
		return "", &StageError{Op: "parse", Stage: Stage(s), Err: ErrInvalidStage}
	}
	return stage, nil
}

// occupancy is a bit set of stages with at least one hook.
type occupancy uint8

const (
	occOnceBefore occupancy = 1 << iota
	occBefore
	occAfter
	occOnceAfter
)

func (o occupancy) has(bits occupancy) bool {
	return o&bits != 0
}
