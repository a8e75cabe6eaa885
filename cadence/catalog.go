// ABOUTME: Pipeline stage catalog mapping stage names to recurrence policies
// ABOUTME: Resolves the sentinel first, then per-user custom stages, then defaults, then the baseline
package cadence

import (
	"github.com/harperreed/synchro/models"
)

// DefaultBaselineDays is the interval used for stage names nobody defines.
const DefaultBaselineDays = 30

// Policy sources, in resolution order.
const (
	SourceSentinel = "sentinel"
	SourceCustom   = "custom"
	SourceDefault  = "default"
	SourceBaseline = "baseline"
)

// Policy is a resolved stage: its interval and randomization knobs.
type Policy struct {
	Stage        string
	IntervalDays int
	Randomize    bool
	// RandomVariation overrides the strategy's jitter magnitude when positive.
	RandomVariation int
	Source          string
}

// Scheduled reports whether the policy produces due dates at all.
func (p Policy) Scheduled() bool {
	return p.Source != SourceSentinel
}

// WithInterval returns a copy of p using a different interval, e.g. a contact's cached one.
func (p Policy) WithInterval(days int) Policy {
	if days > 0 {
		p.IntervalDays = days
	}
	return p
}

// DefaultStages returns the process-wide stage table.
func DefaultStages() []models.PipelineStage {
	return []models.PipelineStage{
		{Name: models.StageWeekly, IntervalDays: 7, Randomize: true},
		{Name: models.StageBiWeekly, IntervalDays: 14, Randomize: true},
		{Name: models.StageMonthly, IntervalDays: 30, Randomize: true},
		{Name: models.StageQuarterly, IntervalDays: 90, Randomize: true},
		{Name: models.StageAnnually, IntervalDays: 365, Randomize: true},
	}
}

// Catalog resolves stage names against a default table and optional per-user overrides.
type Catalog struct {
	defaults []models.PipelineStage
	baseline int
}

type CatalogOption func(*Catalog)

// WithBaseline sets the interval for unknown stage names.
func WithBaseline(days int) CatalogOption {
	return func(c *Catalog) {
		if days > 0 {
			c.baseline = days
		}
	}
}

// WithExtendedStages adds Daily (1 day) to the default table.
func WithExtendedStages() CatalogOption {
	return func(c *Catalog) {
		c.defaults = append([]models.PipelineStage{
			{Name: models.StageDaily, IntervalDays: 1, Randomize: true},
		}, c.defaults...)
	}
}

func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		defaults: DefaultStages(),
		baseline: DefaultBaselineDays,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the policy for stage within an owner's custom table.
// Unknown names degrade to the baseline interval without randomization.
func (c *Catalog) Resolve(stage string, custom []models.PipelineStage) Policy {
	if stage == models.StageNew {
		return Policy{Stage: stage, IntervalDays: 0, Source: SourceSentinel}
	}
	for _, s := range custom {
		if s.Name == stage {
			return fromStage(s, SourceCustom)
		}
	}
	for _, s := range c.defaults {
		if s.Name == stage {
			return fromStage(s, SourceDefault)
		}
	}
	return Policy{Stage: stage, IntervalDays: c.baseline, Source: SourceBaseline}
}

// IsDefault reports whether name is in the default table (or is the sentinel).
func (c *Catalog) IsDefault(name string) bool {
	if name == models.StageNew {
		return true
	}
	for _, s := range c.defaults {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Stages lists the effective table for an owner: defaults, overridden or extended by custom rows.
func (c *Catalog) Stages(custom []models.PipelineStage) []models.PipelineStage {
	out := make([]models.PipelineStage, 0, len(c.defaults)+len(custom))
	seen := make(map[string]bool, len(custom))
	for _, d := range c.defaults {
		row := d
		for _, s := range custom {
			if s.Name == d.Name {
				row = s
				break
			}
		}
		seen[d.Name] = true
		out = append(out, row)
	}
	for _, s := range custom {
		if !seen[s.Name] && s.Name != models.StageNew {
			seen[s.Name] = true
			out = append(out, s)
		}
	}
	return out
}

func fromStage(s models.PipelineStage, source string) Policy {
	days := s.IntervalDays
	if days < 0 {
		days = 0
	}
	variation := s.RandomVariation
	if variation < 0 {
		variation = 0
	}
	return Policy{
		Stage:           s.Name,
		IntervalDays:    days,
		Randomize:       s.Randomize,
		RandomVariation: variation,
		Source:          source,
	}
}
