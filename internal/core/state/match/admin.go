package match

// Slot names a position held by a player in the live context.
type Slot string

const (
	SlotStriker    Slot = "striker"
	SlotNonStriker Slot = "nonStriker"
	SlotBowler     Slot = "bowler"
)

type InningsPhase string

const (
	InningsNotStarted InningsPhase = "not_started"
	InningsInProgress InningsPhase = "in_progress"
	InningsBreak      InningsPhase = "break"
	InningsCompleted  InningsPhase = "completed"
)

type MatchPhase string

const (
	MatchSetup     MatchPhase = "setup"
	MatchLive      MatchPhase = "live"
	MatchCompleted MatchPhase = "completed"
)

// InningsPhase derives the lifecycle position of the current innings.
func (e *Engine) InningsPhase() InningsPhase {
	s := e.state
	switch {
	case s.IsCompleted:
		return InningsCompleted
	case s.openIndex() < 0:
		return InningsBreak
	case len(s.InningsEvents(s.Innings)) == 0:
		return InningsNotStarted
	}
	return InningsInProgress
}

func (e *Engine) MatchPhase() MatchPhase {
	s := e.state
	switch {
	case s.IsCompleted:
		return MatchCompleted
	case s.Innings == 1 && len(s.History) == 0:
		return MatchSetup
	}
	return MatchLive
}

// NeedsBowler reports that an over is due and no bowler is selected.
func (e *Engine) NeedsBowler() bool {
	s := e.state
	return !s.IsCompleted && s.openIndex() >= 0 && s.BowlerID == "" && len(s.InningsEvents(s.Innings)) > 0
}

// NeedsBatter reports a vacant batting slot in a live innings.
func (e *Engine) NeedsBatter() bool {
	s := e.state
	return !s.IsCompleted && s.openIndex() >= 0 && len(s.InningsEvents(s.Innings)) > 0 &&
		(s.StrikerID == "" || s.NonStrikerID == "")
}

// SetOpeners fills the opening batters and bowler of an innings that has
// no events yet and starts the match clock on first use.
func (e *Engine) SetOpeners(strikerID, nonStrikerID, bowlerID string) bool {
	s := e.state
	if s.IsCompleted || s.openIndex() < 0 || len(s.InningsEvents(s.Innings)) > 0 {
		return false
	}
	if strikerID == "" || nonStrikerID == "" || bowlerID == "" || strikerID == nonStrikerID {
		return false
	}
	ev := e.contextEvent(KindOpeners)
	ev.SubjectID = bowlerID
	s.History = append(s.History, ev)
	s.StrikerID, s.NonStrikerID, s.BowlerID = strikerID, nonStrikerID, bowlerID
	if s.Timer.StartTime == 0 {
		s.Timer.StartTime = e.nowMillis()
	}
	e.touch()
	return true
}

// SelectBowler assigns the bowler for a new over.
func (e *Engine) SelectBowler(bowlerID string) bool {
	s := e.state
	if bowlerID == "" || s.BowlerID != "" || s.IsCompleted || s.openIndex() < 0 {
		return false
	}
	ev := e.contextEvent(KindNewBowler)
	ev.SubjectID = bowlerID
	s.History = append(s.History, ev)
	s.BowlerID = bowlerID
	e.touch()
	return true
}

// ReplaceBowlerMidOver swaps the bowler without touching the ball count.
func (e *Engine) ReplaceBowlerMidOver(bowlerID string) bool {
	s := e.state
	if bowlerID == "" || bowlerID == s.BowlerID || s.IsCompleted || s.openIndex() < 0 {
		return false
	}
	ev := e.contextEvent(KindBowlerReplaced)
	ev.SubjectID = bowlerID
	s.History = append(s.History, ev)
	s.BowlerID = bowlerID
	e.touch()
	return true
}

// SelectBatter fills a vacant batting slot.
func (e *Engine) SelectBatter(slot Slot, playerID string) bool {
	s := e.state
	if playerID == "" || s.IsCompleted || s.openIndex() < 0 {
		return false
	}
	if playerID == s.StrikerID || playerID == s.NonStrikerID {
		return false
	}
	var target *string
	switch slot {
	case SlotStriker:
		target = &s.StrikerID
	case SlotNonStriker:
		target = &s.NonStrikerID
	default:
		return false
	}
	if *target != "" {
		return false
	}
	ev := e.contextEvent(KindNewBatter)
	ev.SubjectID = playerID
	s.History = append(s.History, ev)
	*target = playerID
	e.touch()
	return true
}

// SwapBatters exchanges striker and non-striker.
func (e *Engine) SwapBatters() bool {
	s := e.state
	if s.IsCompleted || s.openIndex() < 0 {
		return false
	}
	e.swapEnds()
	e.touch()
	return true
}

// RetireBatter removes a batter from the crease. Retired out counts as a
// wicket; retired hurt does not and the player may return.
func (e *Engine) RetireBatter(playerID string, kind RetirementType) bool {
	s := e.state
	if s.IsCompleted || s.openIndex() < 0 || playerID == "" {
		return false
	}
	if playerID != s.StrikerID && playerID != s.NonStrikerID {
		return false
	}
	if kind != RetiredHurt && kind != RetiredOut {
		return false
	}
	ev := e.contextEvent(KindRetirement)
	ev.SubjectID = playerID
	ev.Retirement = kind
	s.History = append(s.History, ev)
	e.vacate(playerID)
	if kind == RetiredOut {
		s.Wickets++
	}
	e.syncOpen()
	e.touch()
	return true
}

// CorrectPlayerIdentity rewrites a live slot from oldID to newID. History
// is left as recorded. An empty slot matches any position holding oldID.
func (e *Engine) CorrectPlayerIdentity(oldID, newID string, slot Slot) bool {
	s := e.state
	if oldID == "" || newID == "" || oldID == newID {
		return false
	}
	changed := false
	if (slot == "" || slot == SlotStriker) && s.StrikerID == oldID {
		s.StrikerID = newID
		changed = true
	}
	if (slot == "" || slot == SlotNonStriker) && s.NonStrikerID == oldID {
		s.NonStrikerID = newID
		changed = true
	}
	if (slot == "" || slot == SlotBowler) && s.BowlerID == oldID {
		s.BowlerID = newID
		changed = true
	}
	if changed {
		e.touch()
	}
	return changed
}

// StartInnings closes the open innings and opens the next one.
func (e *Engine) StartInnings(battingTeamID, bowlingTeamID string, target *int, followOn bool) bool {
	s := e.state
	if battingTeamID == "" || bowlingTeamID == "" || battingTeamID == bowlingTeamID {
		return false
	}
	if s.IsCompleted || s.Innings >= e.maxInnings() {
		return false
	}
	e.closeOpen()

	s.Innings++
	s.BattingTeamID, s.BowlingTeamID = battingTeamID, bowlingTeamID
	s.Score, s.Wickets, s.TotalBalls = 0, 0, 0
	s.StrikerID, s.NonStrikerID, s.BowlerID = "", "", ""
	s.Target = nil
	if target != nil {
		t := *target
		s.Target = &t
	}
	s.Adjustments.Declared = false
	if s.Adjustments.LastHour {
		// Carry the balls already charged into the new innings count.
		s.Adjustments.LastHourStartBalls = -s.Adjustments.LastHourBalls
	}
	s.InningsScores = append(s.InningsScores, InningsScore{
		TeamID:   battingTeamID,
		Innings:  s.Innings,
		FollowOn: followOn,
	})
	e.touch()
	return true
}

func (e *Engine) closeOpen() {
	s := e.state
	i := s.openIndex()
	if i < 0 {
		return
	}
	e.syncOpen()
	s.InningsScores[i].IsComplete = true
	if s.Adjustments.Declared {
		s.InningsScores[i].Declared = true
		s.Adjustments.Declared = false
	}
}

// EndInnings finalizes the open innings. With isMatchEnd the match is
// marked completed with the given reason.
func (e *Engine) EndInnings(isMatchEnd bool, reason string) bool {
	s := e.state
	if s.IsCompleted {
		return false
	}
	if s.openIndex() < 0 && !isMatchEnd {
		return false
	}
	e.closeOpen()
	if isMatchEnd {
		s.IsCompleted = true
		s.CompletionReason = reason
	}
	e.touch()
	return true
}

// DeclareInnings flags a declaration. The completion policy ends the innings.
func (e *Engine) DeclareInnings() bool {
	s := e.state
	if s.IsCompleted || s.openIndex() < 0 || s.Adjustments.Declared {
		return false
	}
	s.History = append(s.History, e.contextEvent(KindDeclaration))
	s.Adjustments.Declared = true
	e.touch()
	return true
}

// ConcludeInnings flags a forced conclusion of the match.
func (e *Engine) ConcludeInnings() bool {
	s := e.state
	if s.IsCompleted || s.Adjustments.Concluded {
		return false
	}
	if s.openIndex() >= 0 {
		s.History = append(s.History, e.contextEvent(KindConcluded))
	}
	s.Adjustments.Concluded = true
	e.touch()
	return true
}

// TriggerLastHour starts the final-hour allowance of a Test match.
func (e *Engine) TriggerLastHour() bool {
	s := e.state
	if s.Format != FormatTest || s.IsCompleted || s.Adjustments.LastHour {
		return false
	}
	a := &s.Adjustments
	a.LastHour = true
	a.LastHourOvers = lastHourOvers
	// The allowance starts with the next full over.
	a.LastHourStartBalls = (s.TotalBalls + 5) / 6 * 6
	a.LastHourBalls = 0
	a.LastHourOversRemaining = lastHourOvers
	e.touch()
	return true
}

// Metadata is a merge-patch over non-scoring fields. Nil fields are left alone.
type Metadata struct {
	BattingTeamID  *string
	BowlingTeamID  *string
	StrikerID      *string
	NonStrikerID   *string
	BowlerID       *string
	Umpires        []string
	ActiveScorerID *string
	Timer          *MatchTimer
	CurrentDay     *int
	Session        *int
}

// UpdateMetadata applies a merge-patch and reports whether anything changed.
func (e *Engine) UpdateMetadata(m Metadata) bool {
	s := e.state
	changed := false
	set := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	set(&s.BattingTeamID, m.BattingTeamID)
	set(&s.BowlingTeamID, m.BowlingTeamID)
	set(&s.StrikerID, m.StrikerID)
	set(&s.NonStrikerID, m.NonStrikerID)
	set(&s.BowlerID, m.BowlerID)
	set(&s.ActiveScorerID, m.ActiveScorerID)
	if m.BattingTeamID != nil {
		if i := s.openIndex(); i >= 0 && len(s.InningsEvents(s.Innings)) == 0 {
			s.InningsScores[i].TeamID = s.BattingTeamID
		}
	}
	if m.Umpires != nil {
		s.Umpires = append([]string(nil), m.Umpires...)
		changed = true
	}
	if m.Timer != nil && *m.Timer != s.Timer {
		s.Timer = *m.Timer
		changed = true
	}
	if m.CurrentDay != nil && *m.CurrentDay != s.Adjustments.CurrentDay {
		s.Adjustments.CurrentDay = *m.CurrentDay
		changed = true
	}
	if m.Session != nil && *m.Session != s.Adjustments.Session {
		s.Adjustments.Session = *m.Session
		changed = true
	}
	if changed {
		e.touch()
	}
	return changed
}

// PauseTimer stops the match clock.
func (e *Engine) PauseTimer() bool {
	t := &e.state.Timer
	if t.IsPaused {
		return false
	}
	t.IsPaused = true
	t.LastPauseTime = e.nowMillis()
	e.touch()
	return true
}

// ResumeTimer restarts the clock and credits the pause as an allowance.
func (e *Engine) ResumeTimer() bool {
	t := &e.state.Timer
	if !t.IsPaused {
		return false
	}
	t.TotalAllowances += e.nowMillis() - t.LastPauseTime
	t.IsPaused = false
	t.LastPauseTime = 0
	e.touch()
	return true
}
