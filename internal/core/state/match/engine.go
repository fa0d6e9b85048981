package match

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMatchCompleted = errors.New("match completed")
	ErrInningsClosed  = errors.New("innings closed")
	ErrOversExhausted = errors.New("overs exhausted")
	ErrBowlerRequired = errors.New("bowler required")
	ErrInvalidDelta   = errors.New("invalid delta")
)

// Limits carries the rule values the engine enforces directly.
type Limits struct {
	// OversPerInnings caps legal balls at overs*6. Zero means unlimited.
	OversPerInnings int
	// MaxInnings defaults to 4 for Test and 2 otherwise.
	MaxInnings int
	// StrictDismissals rejects dismissals impossible off a wide or no-ball.
	StrictDismissals bool
}

const lastHourOvers = 15

// Engine is the state machine over one MatchState. It is not safe for
// concurrent use; the owning match context serializes access.
type Engine struct {
	state  *MatchState
	limits Limits
	now    func() time.Time
}

func NewEngine(s *MatchState, l Limits) *Engine {
	return &Engine{state: s, limits: l, now: time.Now}
}

// SetClock overrides the engine's time source.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// State returns the live state. Callers must not retain it across mutations.
func (e *Engine) State() *MatchState { return e.state }

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *MatchState { return e.state.Clone() }

// Replace swaps in a whole new state, as a remote merge does.
func (e *Engine) Replace(s *MatchState) { e.state = s }

func (e *Engine) Limits() Limits { return e.limits }

func (e *Engine) SetLimits(l Limits) { e.limits = l }

func (e *Engine) maxInnings() int {
	if e.limits.MaxInnings > 0 {
		return e.limits.MaxInnings
	}
	if e.state.Format == FormatTest {
		return 4
	}
	return 2
}

func (e *Engine) nowMillis() int64 { return e.now().UnixMilli() }

// stamp returns a timestamp unique within the history. Edits address
// deliveries by timestamp.
func (e *Engine) stamp() int64 {
	ts := e.nowMillis()
	if n := len(e.state.History); n > 0 && ts <= e.state.History[n-1].Timestamp {
		ts = e.state.History[n-1].Timestamp + 1
	}
	return ts
}

func (e *Engine) touch() {
	e.state.Version++
	e.state.UpdatedAt = e.nowMillis()
}

// syncOpen copies the live counters into the open innings record.
func (e *Engine) syncOpen() {
	s := e.state
	if i := s.openIndex(); i >= 0 {
		s.InningsScores[i].Score = s.Score
		s.InningsScores[i].Wickets = s.Wickets
		s.InningsScores[i].Balls = s.TotalBalls
	}
}

func (e *Engine) contextEvent(kind EventKind) BallEvent {
	s := e.state
	return BallEvent{
		Kind:         kind,
		Timestamp:    e.stamp(),
		Innings:      s.Innings,
		Over:         s.TotalBalls / 6,
		Ball:         s.TotalBalls%6 + 1,
		StrikerID:    s.StrikerID,
		NonStrikerID: s.NonStrikerID,
		BowlerID:     s.BowlerID,
	}
}

func (e *Engine) validate(d Delta) error {
	s := e.state
	if d.Runs < 0 || d.ExtraRuns < 0 {
		return fmt.Errorf("%w: negative runs", ErrInvalidDelta)
	}
	if !d.ExtraType.Valid() {
		return fmt.Errorf("%w: unknown extra type %q", ErrInvalidDelta, d.ExtraType)
	}
	if d.ExtraType == ExtraWide && d.Runs > 0 {
		return fmt.Errorf("%w: a wide cannot carry runs off the bat", ErrInvalidDelta)
	}
	if !d.IsWicket {
		return nil
	}
	if !d.WicketType.Valid() {
		return fmt.Errorf("%w: unknown wicket type %q", ErrInvalidDelta, d.WicketType)
	}
	if d.OutPlayerID != "" && d.OutPlayerID != s.StrikerID && d.OutPlayerID != s.NonStrikerID {
		return fmt.Errorf("%w: %s is not at the crease", ErrInvalidDelta, d.OutPlayerID)
	}
	if e.limits.StrictDismissals && d.WicketType.illegalOffExtra(d.ExtraType) {
		return fmt.Errorf("%w: %s off a %s", ErrInvalidDelta, d.WicketType, d.ExtraType)
	}
	return nil
}

// ApplyBall records one delivery and advances the counters.
func (e *Engine) ApplyBall(d Delta) (BallEvent, error) {
	s := e.state
	if s.IsCompleted {
		return BallEvent{}, ErrMatchCompleted
	}
	if s.openIndex() < 0 {
		return BallEvent{}, ErrInningsClosed
	}
	if err := e.validate(d); err != nil {
		return BallEvent{}, err
	}
	if e.limits.OversPerInnings > 0 && s.TotalBalls >= e.limits.OversPerInnings*6 {
		return BallEvent{}, ErrOversExhausted
	}
	if s.BowlerID == "" {
		return BallEvent{}, ErrBowlerRequired
	}

	ev := e.contextEvent(KindDelivery)
	ev.Runs = d.Runs
	ev.ExtraType = d.ExtraType
	ev.ExtraRuns = d.ExtraRuns
	ev.Note = d.Note
	ev.PitchCoords = d.PitchCoords
	ev.ShotCoords = d.ShotCoords
	ev.ShotHeight = d.ShotHeight
	if d.IsWicket {
		ev.IsWicket = true
		ev.WicketType = d.WicketType
		ev.OutPlayerID = d.OutPlayerID
		if ev.OutPlayerID == "" {
			ev.OutPlayerID = s.StrikerID
		}
		ev.FielderID = d.FielderID
	}

	s.History = append(s.History, ev)
	s.Score += ev.TotalRuns()
	if ev.IsWicket {
		s.Wickets++
	}
	legal := ev.IsLegal()
	if legal {
		s.TotalBalls++
	}
	if ev.RunsCompleted()%2 == 1 {
		e.swapEnds()
	}
	if ev.IsWicket {
		e.vacate(ev.OutPlayerID)
	}
	if legal {
		e.tickLastHour(false)
		if s.TotalBalls%6 == 0 {
			e.swapEnds()
			s.BowlerID = ""
		}
	}

	e.syncOpen()
	e.touch()
	return ev, nil
}

// RecordWicket applies a dismissal as a delivery.
func (e *Engine) RecordWicket(w WicketEvent) (BallEvent, error) {
	return e.ApplyBall(w.Delta())
}

func (e *Engine) swapEnds() {
	s := e.state
	s.StrikerID, s.NonStrikerID = s.NonStrikerID, s.StrikerID
}

func (e *Engine) vacate(playerID string) {
	s := e.state
	switch playerID {
	case s.StrikerID:
		s.StrikerID = ""
	case s.NonStrikerID:
		s.NonStrikerID = ""
	}
}

// tickLastHour re-derives the last-hour allowance from the innings ball
// count. Balls before the first full over after the trigger are not charged.
func (e *Engine) tickLastHour(undo bool) {
	s := e.state
	a := &s.Adjustments
	if !a.LastHour {
		return
	}
	a.LastHourBalls = max(0, s.TotalBalls-a.LastHourStartBalls)
	a.LastHourOversRemaining = a.LastHourOvers - a.LastHourBalls/6
	switch {
	case a.LastHourOversRemaining <= 0:
		a.LastHourOversRemaining = 0
		a.Concluded = true
	case undo:
		a.Concluded = false
	}
}

// UndoBall removes the latest event of the current innings and restores the
// context it captured. An innings (and match) closed by that event is
// reopened, as long as the next innings has not started. It reports false
// when there is nothing to undo.
func (e *Engine) UndoBall() bool {
	s := e.state
	n := len(s.History)
	if n == 0 {
		return false
	}
	last := s.History[n-1]
	if last.Innings != s.Innings {
		return false
	}
	if s.openIndex() < 0 && !e.reopen(last) {
		return false
	}
	s.History = s.History[:n-1]

	switch last.Kind {
	case KindDelivery:
		s.Score -= last.TotalRuns()
		if last.IsWicket {
			s.Wickets--
		}
		if last.IsLegal() {
			s.TotalBalls--
			e.tickLastHour(true)
		}
	case KindRetirement:
		if last.Retirement == RetiredOut {
			s.Wickets--
		}
	case KindDeclaration:
		s.Adjustments.Declared = false
	case KindConcluded:
		s.Adjustments.Concluded = false
	}
	s.StrikerID = last.StrikerID
	s.NonStrikerID = last.NonStrikerID
	s.BowlerID = last.BowlerID

	e.syncOpen()
	e.touch()
	return true
}

// reopen undoes the close of the latest innings when last is the event that
// closed it. A conclusion entered during the break has no event of its own
// and cannot be reopened.
func (e *Engine) reopen(last BallEvent) bool {
	s := e.state
	i := len(s.InningsScores) - 1
	if i < 0 || s.InningsScores[i].Innings != s.Innings {
		return false
	}
	a := &s.Adjustments
	if a.Concluded && last.Kind != KindConcluded && !lastHourEnded(a, last) {
		return false
	}
	rec := &s.InningsScores[i]
	rec.IsComplete = false
	a.Declared = rec.Declared
	rec.Declared = false
	s.IsCompleted = false
	s.CompletionReason = ""
	return true
}

func lastHourEnded(a *Adjustments, last BallEvent) bool {
	return a.LastHour && a.LastHourOversRemaining == 0 && last.IsDelivery() && last.IsLegal()
}

// EditBall corrects the delivery with the given timestamp. Scoring changes
// re-derive the counters of the innings it belongs to. Player positions are
// never moved by an edit.
func (e *Engine) EditBall(timestamp int64, u BallUpdate) bool {
	s := e.state
	idx := -1
	for i := range s.History {
		if s.History[i].Timestamp == timestamp && s.History[i].IsDelivery() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	b := s.History[idx]
	if u.Runs != nil {
		b.Runs = *u.Runs
	}
	if u.ExtraType != nil {
		b.ExtraType = *u.ExtraType
	}
	if u.ExtraRuns != nil {
		b.ExtraRuns = *u.ExtraRuns
	}
	if u.IsWicket != nil {
		b.IsWicket = *u.IsWicket
		if !b.IsWicket {
			b.WicketType, b.OutPlayerID, b.FielderID = "", "", ""
		}
	}
	if u.WicketType != nil {
		b.WicketType = *u.WicketType
	}
	if u.OutPlayerID != nil {
		b.OutPlayerID = *u.OutPlayerID
	}
	if u.FielderID != nil {
		b.FielderID = *u.FielderID
	}
	if u.Note != nil {
		b.Note = *u.Note
	}
	if u.PitchCoords != nil {
		p := *u.PitchCoords
		b.PitchCoords = &p
	}
	if u.ShotCoords != nil {
		p := *u.ShotCoords
		b.ShotCoords = &p
	}
	if u.ShotHeight != nil {
		b.ShotHeight = *u.ShotHeight
	}
	if b.Runs < 0 || b.ExtraRuns < 0 || !b.ExtraType.Valid() {
		return false
	}
	if b.IsWicket && !b.WicketType.Valid() {
		return false
	}
	s.History[idx] = b
	if u.touchesScoring() {
		e.recompute(b.Innings)
	}
	e.touch()
	return true
}

// recompute re-derives counters and over positions of one innings from history.
func (e *Engine) recompute(innings int) {
	s := e.state
	score, wickets, balls := 0, 0, 0
	for i := range s.History {
		b := &s.History[i]
		if b.Innings != innings {
			continue
		}
		b.Over, b.Ball = balls/6, balls%6+1
		score += b.TotalRuns()
		if b.CountsAsWicket() {
			wickets++
		}
		if b.IsLegal() {
			balls++
		}
	}
	for i := range s.InningsScores {
		if s.InningsScores[i].Innings == innings {
			s.InningsScores[i].Score = score
			s.InningsScores[i].Wickets = wickets
			s.InningsScores[i].Balls = balls
		}
	}
	if innings == s.Innings && s.openIndex() >= 0 {
		s.Score, s.Wickets, s.TotalBalls = score, wickets, balls
		e.tickLastHour(true)
	}
}
