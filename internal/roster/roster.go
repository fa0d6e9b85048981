package roster

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

type Player struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Role string `yaml:"role" json:"role"`
}

type Team struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Players []Player `yaml:"players" json:"players"`
}

// Provider is the read-only team sheet source.
type Provider interface {
	Team(teamID string) (Team, bool)
	Player(teamID, playerID string) (Player, bool)
	Find(teamID, name string) (Player, bool)
	// Name resolves any player id across teams, falling back to the id.
	Name(playerID string) string
	TeamName(teamID string) string
}

type file struct {
	Teams []Team `yaml:"teams"`
}

// Roster is an in-memory Provider built from a team sheet file.
type Roster struct {
	teams   map[string]Team
	players map[string]Player
	byName  map[string]map[string]Player // team -> normalized name -> player
}

func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Roster, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	return New(f.Teams...)
}

// New indexes teams. Team ids and player ids within a team must be unique.
func New(teams ...Team) (*Roster, error) {
	r := &Roster{
		teams:   make(map[string]Team, len(teams)),
		players: make(map[string]Player),
		byName:  make(map[string]map[string]Player, len(teams)),
	}
	for _, t := range teams {
		if t.ID == "" {
			return nil, fmt.Errorf("team %q has no id", t.Name)
		}
		if _, dup := r.teams[t.ID]; dup {
			return nil, fmt.Errorf("duplicate team id %q", t.ID)
		}
		r.teams[t.ID] = t
		names := make(map[string]Player, len(t.Players))
		seen := make(map[string]bool, len(t.Players))
		for _, p := range t.Players {
			if p.ID == "" || seen[p.ID] {
				return nil, fmt.Errorf("team %s: missing or duplicate player id %q", t.ID, p.ID)
			}
			seen[p.ID] = true
			r.players[p.ID] = p
			names[Normalize(p.Name)] = p
		}
		r.byName[t.ID] = names
	}
	return r, nil
}

func (r *Roster) Team(teamID string) (Team, bool) {
	t, ok := r.teams[teamID]
	return t, ok
}

func (r *Roster) Player(teamID, playerID string) (Player, bool) {
	t, ok := r.teams[teamID]
	if !ok {
		return Player{}, false
	}
	for _, p := range t.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

func (r *Roster) Find(teamID, name string) (Player, bool) {
	p, ok := r.byName[teamID][Normalize(name)]
	return p, ok
}

func (r *Roster) Name(playerID string) string {
	if p, ok := r.players[playerID]; ok {
		return p.Name
	}
	return playerID
}

func (r *Roster) TeamName(teamID string) string {
	if t, ok := r.teams[teamID]; ok && t.Name != "" {
		return t.Name
	}
	return teamID
}

// Normalize lowercases, strips diacritics and collapses whitespace so
// "José  Buttler" and "jose buttler" match.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
