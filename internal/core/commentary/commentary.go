package commentary

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

// Ball is the narration input for one delivery.
type Ball struct {
	Runs          int
	ExtraType     match.ExtraType
	ExtraRuns     int
	WicketType    match.WicketType
	StrikerName   string
	BowlerName    string
	OutPlayerName string
	FielderName   string
}

// Over is the narration input at the end of an over.
type Over struct {
	OverNumber   int
	Innings      int
	Score        int
	Wickets      int
	RunRate      float64
	Target       *int
	RequiredRate *float64
	BatterName   string
	BatterScore  int
	Projected    int
	// Lead is the batting side's aggregate lead; negative when trailing.
	Lead int
}

// Generator picks among phrase variants. It is not safe for concurrent use;
// each match goroutine owns one.
type Generator struct {
	rng *rand.Rand
}

func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Generator) pick(phrases []string) string {
	return phrases[g.rng.IntN(len(phrases))]
}

func fill(phrase string, b Ball) string {
	r := strings.NewReplacer(
		"{batter}", or(b.StrikerName, "The batter"),
		"{bowler}", or(b.BowlerName, "The bowler"),
		"{outPlayer}", or(b.OutPlayerName, "The batter"),
		"{fielder}", or(b.FielderName, "the fielder"),
		"{runs}", strconv.Itoa(b.Runs+b.ExtraRuns),
	)
	return r.Replace(phrase)
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Ball narrates one delivery. Extras take precedence over wickets, which
// take precedence over runs.
func (g *Generator) Ball(b Ball) string {
	switch b.ExtraType {
	case match.ExtraWide:
		return fill(g.pick(ballPhrases["wide"]), b)
	case match.ExtraNoBall:
		return fill(g.pick(ballPhrases["noBall"]), b)
	case match.ExtraBye:
		return fill(g.pick(ballPhrases["bye"]), b)
	case match.ExtraLegBye:
		return fill(g.pick(ballPhrases["legBye"]), b)
	}
	if b.WicketType != "" {
		if phrases, ok := wicketPhrases[string(b.WicketType)]; ok {
			return fill(g.pick(phrases), b)
		}
		return fmt.Sprintf("WICKET! %s!", b.WicketType)
	}
	key := ""
	switch b.Runs {
	case 0:
		key = "dot"
	case 1:
		key = "single"
	case 2:
		key = "two"
	case 3:
		key = "three"
	case 4:
		key = "four"
	case 6:
		key = "six"
	default:
		return fmt.Sprintf("%d runs", b.Runs)
	}
	return fill(g.pick(ballPhrases[key]), b)
}

// EndOfOver summarizes the position after an over.
func (g *Generator) EndOfOver(o Over) string {
	rr := fmt.Sprintf("%.2f", o.RunRate)
	sw := fmt.Sprintf("%d for %d", o.Score, o.Wickets)
	n := o.OverNumber

	if o.Target != nil {
		need := *o.Target - o.Score
		if need > 0 {
			templates := []string{
				fmt.Sprintf("End of over %d. %s. They need %d more runs to win.", n, sw, need),
				fmt.Sprintf("That's over %d. %s. %d runs required.", n, sw, need),
			}
			if o.RequiredRate != nil {
				req := fmt.Sprintf("%.2f", *o.RequiredRate)
				templates = append(templates,
					fmt.Sprintf("End of over %d. %s. Need %d runs. Required rate %s.", n, sw, need, req),
					fmt.Sprintf("Over %d done. %d to win. Required rate %s, current rate %s.", n, need, req, rr),
				)
			}
			if o.BatterName != "" {
				templates = append(templates,
					fmt.Sprintf("Over %d complete. %s on %d. Team needs %d more runs.", n, o.BatterName, o.BatterScore, need))
			}
			return g.pick(templates)
		}
	}

	templates := []string{
		fmt.Sprintf("End of over %d. The score is %s. Current run rate, %s.", n, sw, rr),
		fmt.Sprintf("Over %d complete. %s. Run rate %s.", n, sw, rr),
	}
	if o.BatterName != "" {
		templates = append(templates,
			fmt.Sprintf("End of over %d. %s. %s on %d.", n, sw, o.BatterName, o.BatterScore))
	}
	if o.Projected > 0 {
		templates = append(templates,
			fmt.Sprintf("Over %d complete. %s. Projected total, %d.", n, sw, o.Projected))
	}
	switch {
	case o.Lead > 0:
		templates = append(templates, fmt.Sprintf("Over %d done. %s. They lead by %d runs.", n, sw, o.Lead))
	case o.Lead < 0:
		templates = append(templates, fmt.Sprintf("End of over %d. %s. Still %d runs behind.", n, sw, -o.Lead))
	}
	return g.pick(templates)
}
