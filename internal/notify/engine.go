package notify

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/huntwatch/huntwatch/internal/config"
	"github.com/huntwatch/huntwatch/pkg/types"
)

const (
	defaultCooldown = 10 * time.Minute
	maxRecentLen    = 200
	recentWindow    = time.Hour
)

// Notification is one rule firing on an accepted sighting.
type Notification struct {
	ID       string    `json:"id"`
	Rule     string    `json:"rule"`
	Subject  string    `json:"subject"` // "name @ world/instance"
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Value    float64   `json:"value"`
	FiredAt  time.Time `json:"fired_at"`
}

// Engine evaluates notification rules against accepted sightings and
// delivers webhook notifications when a rule fires. Entries under cooldown
// for the same rule and identity are suppressed.
//
// Engine is safe for concurrent use. An Engine with no rules is valid;
// SightingRecorded becomes a no-op.
type Engine struct {
	rules    []config.NotifyRule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	lastFire map[string]time.Time // key: "ruleName:subject"
	recent   []*Notification

	client *http.Client
	now    func() time.Time // injectable for deterministic tests
}

// New creates an Engine from the notify configuration.
func New(cfg config.NotifyConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// SightingRecorded tests every rule against rep. Rules that fire are
// recorded and webhook delivery runs asynchronously; the caller is never
// blocked on delivery.
func (e *Engine) SightingRecorded(rep types.SightingReport) {
	if e == nil || len(e.rules) == 0 {
		return
	}

	subject := fmt.Sprintf("%s @ %s/%s", rep.Name, rep.World, rep.Instance)
	now := e.now()

	for _, rule := range e.rules {
		fires, value := evalCondition(rule.Condition, rep)
		if !fires {
			continue
		}

		key := rule.Name + ":" + subject
		cooldown := rule.Cooldown
		if cooldown <= 0 {
			cooldown = defaultCooldown
		}

		e.mu.Lock()
		if last, ok := e.lastFire[key]; ok && now.Sub(last) <= cooldown {
			e.mu.Unlock()
			continue
		}
		sev := rule.Severity
		if sev == "" {
			sev = "info"
		}
		n := &Notification{
			ID:       fmt.Sprintf("%s:%s:%d", rule.Name, subject, now.UnixNano()),
			Rule:     rule.Name,
			Subject:  subject,
			Severity: sev,
			Value:    value,
			Message: fmt.Sprintf("[%s] %s fired on %s — %s = %.2f",
				sev, rule.Name, subject, rule.Condition, value),
			FiredAt: now,
		}
		e.lastFire[key] = now
		e.recent = append(e.recent, n)
		if len(e.recent) > maxRecentLen {
			e.recent = e.recent[len(e.recent)-maxRecentLen:]
		}
		nCopy := *n
		e.mu.Unlock()

		slog.Warn("notify: rule fired",
			"rule", rule.Name,
			"subject", subject,
			"value", value,
			"severity", sev,
		)
		go e.deliver(&nCopy)
	}
}

// Active returns copies of the notifications fired within the past hour,
// newest first.
func (e *Engine) Active() []*Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Notification, 0, len(e.recent))
	for _, n := range e.recent {
		if n.FiredAt.After(cutoff) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}
