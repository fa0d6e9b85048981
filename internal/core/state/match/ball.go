package match

// EventKind tags a history entry. Deliveries move the score; every other
// kind records an administrative change to the match context.
type EventKind string

const (
	KindDelivery       EventKind = "delivery"
	KindOpeners        EventKind = "openers"
	KindNewBowler      EventKind = "new_bowler"
	KindNewBatter      EventKind = "new_batter"
	KindBowlerReplaced EventKind = "bowler_replaced"
	KindRetirement     EventKind = "retirement"
	KindDeclaration    EventKind = "declaration"
	KindConcluded      EventKind = "concluded"
)

type ExtraType string

const (
	ExtraNone   ExtraType = ""
	ExtraWide   ExtraType = "Wide"
	ExtraNoBall ExtraType = "NoBall"
	ExtraBye    ExtraType = "Bye"
	ExtraLegBye ExtraType = "LegBye"
)

// IsLegal reports whether a delivery with this extra counts toward the over.
func (x ExtraType) IsLegal() bool { return x != ExtraWide && x != ExtraNoBall }

// Penalty is the automatic one-run penalty for wides and no-balls.
func (x ExtraType) Penalty() int {
	if x.IsLegal() {
		return 0
	}
	return 1
}

func (x ExtraType) Valid() bool {
	switch x {
	case ExtraNone, ExtraWide, ExtraNoBall, ExtraBye, ExtraLegBye:
		return true
	}
	return false
}

type WicketType string

const (
	WicketBowled           WicketType = "Bowled"
	WicketCaught           WicketType = "Caught"
	WicketCaughtBehind     WicketType = "Caught Behind"
	WicketLBW              WicketType = "LBW"
	WicketRunOut           WicketType = "Run Out"
	WicketStumped          WicketType = "Stumped"
	WicketHitWicket        WicketType = "Hit Wicket"
	WicketObstructingField WicketType = "Obstructing the Field"
	WicketTimedOut         WicketType = "Timed Out"
)

// WicketTypes lists every dismissal in display order.
var WicketTypes = []WicketType{
	WicketBowled, WicketCaught, WicketCaughtBehind, WicketLBW, WicketRunOut,
	WicketStumped, WicketHitWicket, WicketObstructingField, WicketTimedOut,
}

func (w WicketType) Valid() bool {
	for _, t := range WicketTypes {
		if t == w {
			return true
		}
	}
	return false
}

// NeedsFielder reports whether the dismissal names a fielder.
func (w WicketType) NeedsFielder() bool {
	switch w {
	case WicketCaught, WicketCaughtBehind, WicketRunOut, WicketStumped:
		return true
	}
	return false
}

// CreditsBowler reports whether the dismissal goes into the bowler's figures.
func (w WicketType) CreditsBowler() bool {
	switch w {
	case WicketRunOut, WicketObstructingField, WicketTimedOut:
		return false
	}
	return true
}

// illegalOffExtra reports dismissals that cannot happen off a wide or no-ball.
func (w WicketType) illegalOffExtra(x ExtraType) bool {
	switch x {
	case ExtraNoBall:
		return w != WicketRunOut && w != WicketObstructingField
	case ExtraWide:
		return w != WicketRunOut && w != WicketStumped && w != WicketObstructingField && w != WicketHitWicket
	}
	return false
}

type RetirementType string

const (
	RetiredHurt RetirementType = "Retired Hurt"
	RetiredOut  RetirementType = "Retired Out"
)

// Coord is a normalized position on the pitch or wagon-wheel diagram.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BallEvent is one immutable history entry. Striker, non-striker and bowler
// hold the context before the event, which is what undo restores.
type BallEvent struct {
	Kind      EventKind `json:"kind"`
	Timestamp int64     `json:"timestamp"`
	Innings   int       `json:"innings"`
	Over      int       `json:"over"`
	Ball      int       `json:"ball"`

	StrikerID    string `json:"strikerId,omitempty"`
	NonStrikerID string `json:"nonStrikerId,omitempty"`
	BowlerID     string `json:"bowlerId,omitempty"`

	Runs      int       `json:"runs"`
	ExtraType ExtraType `json:"extraType,omitempty"`
	ExtraRuns int       `json:"extraRuns"`

	IsWicket    bool       `json:"isWicket,omitempty"`
	WicketType  WicketType `json:"wicketType,omitempty"`
	OutPlayerID string     `json:"outPlayerId,omitempty"`
	FielderID   string     `json:"fielderId,omitempty"`

	// SubjectID is the incoming or affected player of an administrative event.
	SubjectID  string         `json:"subjectId,omitempty"`
	Retirement RetirementType `json:"retirement,omitempty"`

	Note string `json:"note,omitempty"`

	PitchCoords *Coord `json:"pitchCoords,omitempty"`
	ShotCoords  *Coord `json:"shotCoords,omitempty"`
	ShotHeight  string `json:"shotHeight,omitempty"`
}

func (b BallEvent) IsDelivery() bool { return b.Kind == KindDelivery }

// IsLegal reports whether the event counts toward the over.
func (b BallEvent) IsLegal() bool { return b.IsDelivery() && b.ExtraType.IsLegal() }

// TotalRuns is what the event adds to the team score.
func (b BallEvent) TotalRuns() int {
	if !b.IsDelivery() {
		return 0
	}
	return b.Runs + b.ExtraRuns + b.ExtraType.Penalty()
}

// RunsCompleted counts runs physically run or hit, penalty excluded.
// An odd value means the batters changed ends.
func (b BallEvent) RunsCompleted() int {
	if !b.IsDelivery() {
		return 0
	}
	return b.Runs + b.ExtraRuns
}

// BowlerRuns is what the event costs the bowler. Byes and leg byes are not charged.
func (b BallEvent) BowlerRuns() int {
	if !b.IsDelivery() {
		return 0
	}
	switch b.ExtraType {
	case ExtraBye, ExtraLegBye:
		return b.Runs
	}
	return b.TotalRuns()
}

// CountsAsWicket reports whether the event adds to the wickets column.
func (b BallEvent) CountsAsWicket() bool {
	if b.IsDelivery() {
		return b.IsWicket
	}
	return b.Kind == KindRetirement && b.Retirement == RetiredOut
}

// Delta is the scorer's input for one delivery.
type Delta struct {
	Runs        int
	ExtraType   ExtraType
	ExtraRuns   int
	IsWicket    bool
	WicketType  WicketType
	OutPlayerID string
	FielderID   string
	Note        string
	PitchCoords *Coord
	ShotCoords  *Coord
	ShotHeight  string
}

// WicketEvent is a confirmed dismissal, optionally with runs completed on the same ball.
type WicketEvent struct {
	Type        WicketType
	OutPlayerID string
	FielderID   string
	Runs        int
	ExtraType   ExtraType
	ExtraRuns   int
}

func (w WicketEvent) Delta() Delta {
	return Delta{
		Runs:        w.Runs,
		ExtraType:   w.ExtraType,
		ExtraRuns:   w.ExtraRuns,
		IsWicket:    true,
		WicketType:  w.Type,
		OutPlayerID: w.OutPlayerID,
		FielderID:   w.FielderID,
	}
}

// BallUpdate is a partial correction to a recorded delivery. Nil fields are left alone.
type BallUpdate struct {
	Runs        *int
	ExtraType   *ExtraType
	ExtraRuns   *int
	IsWicket    *bool
	WicketType  *WicketType
	OutPlayerID *string
	FielderID   *string
	Note        *string
	PitchCoords *Coord
	ShotCoords  *Coord
	ShotHeight  *string
}

func (u BallUpdate) touchesScoring() bool {
	return u.Runs != nil || u.ExtraType != nil || u.ExtraRuns != nil || u.IsWicket != nil
}
