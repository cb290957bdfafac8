package migrationapp

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// SkipCategory classifies a skipped source row
type SkipCategory string

const (
	SkipMissingKey          SkipCategory = "missing_key"
	SkipUnresolvedReference SkipCategory = "unresolved_reference"
	SkipInvalidDate         SkipCategory = "invalid_date"
	SkipInvalidRow          SkipCategory = "invalid_row"
)

// flagFallback marks a flagged row that was stored with a synthesized value
const flagFallback = "fallback_used"

// Entity kinds reported in the summary
const (
	KindCurrency        = "currency"
	KindBranch          = "branch"
	KindWarehouse       = "warehouse"
	KindPriceList       = "price_list"
	KindExpenseType     = "expense_type"
	KindSupplier        = "supplier"
	KindCustomer        = "customer"
	KindProduct         = "product"
	KindPurchase        = "purchase"
	KindPurchaseLine    = "purchase_line"
	KindPurchaseExpense = "purchase_expense"
	KindSale            = "sale"
	KindSaleLine        = "sale_line"
	KindInventory       = "inventory_snapshot"
)

// KindCounts are the per-kind totals of a run
type KindCounts struct {
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Unchanged    int `json:"unchanged"`
	Skipped      int `json:"skipped"`
	FallbackUsed int `json:"fallback_used"`
}

// Flag is an anomalous row kept for the summary
type Flag struct {
	Sheet    string `json:"sheet,omitempty"`
	Row      int    `json:"row,omitempty"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Value    string `json:"value,omitempty"`
}

// PhaseReport is the per-phase part of the summary. Flags holds the first
// flagged rows up to the run's limit; FlagCount counts all of them.
type PhaseReport struct {
	Name      string        `json:"name"`
	Duration  time.Duration `json:"duration_ns"`
	Flags     []Flag        `json:"flags,omitempty"`
	FlagCount int           `json:"flag_count"`
}

// Summary is the terminal record of a run
type Summary struct {
	RunID      string                 `json:"run_id"`
	State      SessionState           `json:"state"`
	Error      string                 `json:"error,omitempty"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Kinds      map[string]*KindCounts `json:"kinds"`
	Skips      map[SkipCategory]int   `json:"skips"`
	Phases     []*PhaseReport         `json:"phases"`

	phases    map[string]*PhaseReport
	flagLimit int
}

// NewSummary creates an empty summary keeping at most flagLimit flags per phase
func NewSummary(runID string, flagLimit int) *Summary {
	if flagLimit < 0 {
		flagLimit = 0
	}
	return &Summary{
		RunID:     runID,
		State:     StateCreated,
		Kinds:     make(map[string]*KindCounts),
		Skips:     make(map[SkipCategory]int),
		phases:    make(map[string]*PhaseReport),
		flagLimit: flagLimit,
	}
}

// Kind returns the counters of kind, creating them on first use
func (s *Summary) Kind(kind string) *KindCounts {
	c, ok := s.Kinds[kind]
	if !ok {
		c = &KindCounts{}
		s.Kinds[kind] = c
	}
	return c
}

// Phase returns the report of phase, creating it on first use
func (s *Summary) Phase(name string) *PhaseReport {
	p, ok := s.phases[name]
	if !ok {
		p = &PhaseReport{Name: name}
		s.phases[name] = p
		s.Phases = append(s.Phases, p)
	}
	return p
}

// Record counts one resolved row
func (s *Summary) Record(kind string, outcome Outcome, fallbackUsed bool) {
	c := s.Kind(kind)
	switch outcome {
	case OutcomeCreated:
		c.Created++
	case OutcomeUpdated:
		c.Updated++
	case OutcomeUnchanged:
		c.Unchanged++
	}
	if fallbackUsed {
		c.FallbackUsed++
	}
}

// Skip counts a skipped row and flags it on phase
func (s *Summary) Skip(phase, kind string, category SkipCategory, f Flag) {
	s.Kind(kind).Skipped++
	s.Skips[category]++
	f.Category = string(category)
	s.Flag(phase, f)
}

// Flag keeps f on phase when the phase is under the flag limit
func (s *Summary) Flag(phase string, f Flag) {
	p := s.Phase(phase)
	p.FlagCount++
	if len(p.Flags) < s.flagLimit {
		p.Flags = append(p.Flags, f)
	}
}

// Totals sums the counters of every kind
func (s *Summary) Totals() KindCounts {
	var t KindCounts
	for _, c := range s.Kinds {
		t.Created += c.Created
		t.Updated += c.Updated
		t.Unchanged += c.Unchanged
		t.Skipped += c.Skipped
		t.FallbackUsed += c.FallbackUsed
	}
	return t
}

// Log writes the summary as structured log lines, one per kind
func (s *Summary) Log(log *zap.Logger) {
	kinds := make([]string, 0, len(s.Kinds))
	for k := range s.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		c := s.Kinds[k]
		log.Info("Entity totals",
			zap.String("kind", k),
			zap.Int("created", c.Created),
			zap.Int("updated", c.Updated),
			zap.Int("unchanged", c.Unchanged),
			zap.Int("skipped", c.Skipped),
			zap.Int("fallback_used", c.FallbackUsed),
		)
	}
	for _, p := range s.Phases {
		for _, f := range p.Flags {
			log.Info("Flagged row",
				zap.String("phase", p.Name),
				zap.String("sheet", f.Sheet),
				zap.Int("row", f.Row),
				zap.String("category", f.Category),
				zap.String("message", f.Message),
			)
		}
		if p.FlagCount > len(p.Flags) {
			log.Info("More flagged rows not shown", zap.String("phase", p.Name), zap.Int("hidden", p.FlagCount-len(p.Flags)))
		}
	}

	t := s.Totals()
	skips := make([]zap.Field, 0, len(s.Skips))
	for cat, n := range s.Skips {
		skips = append(skips, zap.Int(string(cat), n))
	}
	log.Info("Migration summary",
		zap.String("state", string(s.State)),
		zap.Int("created", t.Created),
		zap.Int("updated", t.Updated),
		zap.Int("unchanged", t.Unchanged),
		zap.Int("skipped", t.Skipped),
		zap.Int("fallback_used", t.FallbackUsed),
		zap.Dict("skips", skips...),
		zap.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)),
	)
}
