package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/audit"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/scoring"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

const maxBody = 1 << 20

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return &live.ValidationError{Msg: fmt.Sprintf("Malformed request body: %v", err)}
	}
	return nil
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	out := []replica.Summary{}
	for _, mc := range s.deps.Matches.List() {
		st, err := mc.Snapshot(r.Context())
		if err != nil {
			continue
		}
		out = append(out, replica.Summarize(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	who := identity(r)
	if who.ID == "" || (who.Role != replica.RoleScorer && who.Role != replica.RoleAdministrator) {
		writeFail(w, http.StatusForbidden, "forbidden", "Only scorers and administrators can create matches.")
		return
	}
	var req scoring.CreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	mc, err := s.deps.Matches.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := mc.View(r.Context(), who)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) match(w http.ResponseWriter, r *http.Request) (*live.MatchContext, bool) {
	mc, err := s.deps.Matches.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return mc, true
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	mc, ok := s.match(w, r)
	if !ok {
		return
	}
	v, err := mc.View(r.Context(), identity(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	mc, ok := s.match(w, r)
	if !ok {
		return
	}
	st, err := mc.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	if s.deps.Audit == nil {
		writeFail(w, http.StatusNotFound, "not_found", "audit log is disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.deps.Audit.Query(audit.Filter{
		MatchID:   chi.URLParam(r, "id"),
		EventType: r.URL.Query().Get("type"),
		Limit:     limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	type row struct {
		Ts        string `json:"ts"`
		EventType string `json:"eventType"`
		Innings   int    `json:"innings"`
		Score     int    `json:"score"`
		Wickets   int    `json:"wickets"`
		Overs     string `json:"overs"`
		Detail    string `json:"detail,omitempty"`
		ScorerID  string `json:"scorerId,omitempty"`
	}
	out := make([]row, 0, len(rows))
	for _, ar := range rows {
		out = append(out, row{
			Ts:        ar.Ts.Format("2006-01-02T15:04:05.000Z07:00"),
			EventType: ar.EventType,
			Innings:   ar.Innings,
			Score:     ar.Score,
			Wickets:   ar.Wickets,
			Overs:     ar.Overs,
			Detail:    ar.Detail,
			ScorerID:  ar.ScorerID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// mutation is a live operation on one match.
type mutation func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error)

// do loads the match, runs op as the caller and answers with the updated
// view so the client can render without a second request.
func (s *Server) do(op mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mc, ok := s.match(w, r)
		if !ok {
			return
		}
		who := identity(r)
		if _, err := op(r, mc, who); err != nil {
			writeError(w, err)
			return
		}
		v, err := mc.View(r.Context(), who)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// withBody decodes the request body into T before running fn.
func withBody[T any](fn func(r *http.Request, mc *live.MatchContext, who replica.Identity, body T) (*match.MatchState, error)) mutation {
	return func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		var body T
		if err := decode(r, &body); err != nil {
			return nil, err
		}
		return fn(r, mc, who, body)
	}
}

type playerBody struct {
	PlayerID string     `json:"playerId"`
	Slot     match.Slot `json:"slot,omitempty"`
}

type retireBody struct {
	PlayerID string               `json:"playerId"`
	Kind     match.RetirementType `json:"kind"`
}

type correctBody struct {
	OldID string     `json:"oldId"`
	NewID string     `json:"newId"`
	Slot  match.Slot `json:"slot,omitempty"`
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b live.StartRequest) (*match.MatchState, error) {
		return mc.StartInnings(r.Context(), who, b)
	}))(w, r)
}

func (s *Server) ball(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b live.BallRequest) (*match.MatchState, error) {
		return mc.ApplyBall(r.Context(), who, b)
	}))(w, r)
}

func (s *Server) wicket(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b live.WicketRequest) (*match.MatchState, error) {
		return mc.RecordWicket(r.Context(), who, b)
	}))(w, r)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.Undo(r.Context(), who)
	})(w, r)
}

func (s *Server) editBall(w http.ResponseWriter, r *http.Request) {
	ts, err := strconv.ParseInt(chi.URLParam(r, "ts"), 10, 64)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "invalid", "ball timestamp must be an integer")
		return
	}
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b match.BallUpdate) (*match.MatchState, error) {
		return mc.EditBall(r.Context(), who, ts, b)
	}))(w, r)
}

func (s *Server) selectBowler(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b playerBody) (*match.MatchState, error) {
		return mc.SelectBowler(r.Context(), who, b.PlayerID)
	}))(w, r)
}

func (s *Server) replaceBowler(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b playerBody) (*match.MatchState, error) {
		return mc.ReplaceBowler(r.Context(), who, b.PlayerID)
	}))(w, r)
}

func (s *Server) selectBatter(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b playerBody) (*match.MatchState, error) {
		slot := b.Slot
		if slot == "" {
			slot = match.SlotStriker
		}
		return mc.SelectBatter(r.Context(), who, slot, b.PlayerID)
	}))(w, r)
}

func (s *Server) swap(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.SwapBatters(r.Context(), who)
	})(w, r)
}

func (s *Server) retire(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b retireBody) (*match.MatchState, error) {
		return mc.Retire(r.Context(), who, b.PlayerID, b.Kind)
	}))(w, r)
}

func (s *Server) correct(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b correctBody) (*match.MatchState, error) {
		return mc.CorrectIdentity(r.Context(), who, b.OldID, b.NewID, b.Slot)
	}))(w, r)
}

func (s *Server) declare(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.Declare(r.Context(), who)
	})(w, r)
}

func (s *Server) conclude(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.Conclude(r.Context(), who)
	})(w, r)
}

func (s *Server) nextInnings(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.StartNextInnings(r.Context(), who)
	})(w, r)
}

func (s *Server) followOn(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.EnforceFollowOn(r.Context(), who)
	})(w, r)
}

func (s *Server) lastHour(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.TriggerLastHour(r.Context(), who)
	})(w, r)
}

func (s *Server) metadata(w http.ResponseWriter, r *http.Request) {
	s.do(withBody(func(r *http.Request, mc *live.MatchContext, who replica.Identity, b match.Metadata) (*match.MatchState, error) {
		return mc.UpdateMetadata(r.Context(), who, b)
	}))(w, r)
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.PauseTimer(r.Context(), who)
	})(w, r)
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.ResumeTimer(r.Context(), who)
	})(w, r)
}

func (s *Server) claimLock(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.ClaimLock(r.Context(), who)
	})(w, r)
}

func (s *Server) releaseLock(w http.ResponseWriter, r *http.Request) {
	s.do(func(r *http.Request, mc *live.MatchContext, who replica.Identity) (*match.MatchState, error) {
		return mc.ReleaseLock(r.Context(), who)
	})(w, r)
}
