package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

// Discord allows roughly five webhook posts per two seconds.
const (
	webhookEvery = 400 * time.Millisecond
	webhookBurst = 5
)

type Notifier struct {
	webhookURL string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(webhookEvery), webhookBurst),
	}
}

func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

func (n *Notifier) SendText(ctx context.Context, msg string) error {
	return n.send(ctx, webhookPayload{Content: msg})
}

func (n *Notifier) SendEmbed(ctx context.Context, embed Embed) error {
	if embed.Timestamp == "" {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return n.send(ctx, webhookPayload{Embeds: []Embed{embed}})
}

func (n *Notifier) send(ctx context.Context, payload webhookPayload) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord limiter: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		telemetry.Warnf("discord: rate limited")
		return fmt.Errorf("discord rate limited")
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook: status=%d", resp.StatusCode)
	}

	return nil
}

// --- Convenience methods for match alerts ---

const (
	ColorGreen  = 0x2ECC71
	ColorYellow = 0xF1C40F
	ColorBlue   = 0x3498DB
)

// MatchResult is posted once per completed match.
func MatchResult(matchID, resultText, reason string, scores map[string]string) Embed {
	e := Embed{
		Title:       "Match Complete",
		Description: resultText,
		Color:       ColorGreen,
		Fields: []Field{
			{Name: "Match", Value: matchID, Inline: true},
			{Name: "Finish", Value: reason, Inline: true},
		},
	}
	for _, team := range sortedKeys(scores) {
		e.Fields = append(e.Fields, Field{Name: team, Value: scores[team], Inline: true})
	}
	return e
}

// InningsBreak is posted when an innings closes and the match goes on.
func InningsBreak(matchID, team string, inningsNo, score, wickets int, overs, reason string) Embed {
	return Embed{
		Title:       fmt.Sprintf("Innings %d Complete", inningsNo),
		Description: fmt.Sprintf("%s %d/%d (%s ov), %s", team, score, wickets, overs, reason),
		Color:       ColorBlue,
		Fields: []Field{
			{Name: "Match", Value: matchID, Inline: true},
		},
	}
}
