package admission

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Edge-level admission control: a fixed window sized per route plus a burst
// bucket. Requests beyond rate*interval consume burst tokens; once those are
// gone the request is rejected before it reaches any handler. Rejection is a
// normal control-flow outcome, not a service error.

// FlowRule is the per-route quota: Count requests per second over a window of
// IntervalSec seconds, with Burst extra admissions once the window is full.
type FlowRule struct {
	RouteID     string `json:"routeId"`
	Count       int    `json:"count"`
	IntervalSec int    `json:"intervalSec"`
	Burst       int    `json:"burst"`
}

func (r FlowRule) validate() error {
	if r.RouteID == "" {
		return fmt.Errorf("flow rule missing routeId")
	}
	if r.Count <= 0 {
		return fmt.Errorf("flow rule %q: count must be positive", r.RouteID)
	}
	if r.IntervalSec <= 0 {
		return fmt.Errorf("flow rule %q: intervalSec must be positive", r.RouteID)
	}
	if r.Burst < 0 {
		return fmt.Errorf("flow rule %q: burst must not be negative", r.RouteID)
	}
	return nil
}

// ParseRules decodes the JSON rule list carried in configuration.
func ParseRules(raw string) ([]FlowRule, error) {
	var rules []FlowRule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, fmt.Errorf("decode flow rules: %w", err)
	}
	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// flowCounter is the mutable window state for one route. Its mutex makes the
// whole check-and-increment one atomic step, so concurrent requests can never
// over-admit.
type flowCounter struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
	burstUsed   int
}

// Limiter tracks one counter per configured route. Routes without a rule are
// admitted unconditionally. Counters are sharded per route so two routes never
// contend on the same lock. Allow never blocks on I/O.
type Limiter struct {
	rules    map[string]FlowRule
	mu       sync.Mutex
	counters map[string]*flowCounter
}

func NewLimiter(rules []FlowRule) (*Limiter, error) {
	byRoute := make(map[string]FlowRule, len(rules))
	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
		byRoute[rule.RouteID] = rule
	}
	return &Limiter{
		rules:    byRoute,
		counters: make(map[string]*flowCounter),
	}, nil
}

// Allow reports whether a request for routeID is admitted at instant now.
func (l *Limiter) Allow(routeID string, now time.Time) bool {
	rule, ok := l.rules[routeID]
	if !ok {
		return true
	}

	counter := l.counter(routeID)
	counter.mu.Lock()
	defer counter.mu.Unlock()

	interval := time.Duration(rule.IntervalSec) * time.Second
	if counter.windowStart.IsZero() || now.Sub(counter.windowStart) >= interval {
		counter.windowStart = now
		counter.count = 0
		counter.burstUsed = 0
	}

	if counter.count < rule.Count*rule.IntervalSec {
		counter.count++
		return true
	}
	if counter.burstUsed < rule.Burst {
		counter.burstUsed++
		return true
	}
	return false
}

func (l *Limiter) counter(routeID string) *flowCounter {
	l.mu.Lock()
	defer l.mu.Unlock()
	counter, ok := l.counters[routeID]
	if !ok {
		counter = &flowCounter{}
		l.counters[routeID] = counter
	}
	return counter
}
