package dashboard

import (
	"fmt"
)

// NoData is displayed for metrics whose stat has no value
const NoData = "No data"

// FilterTarget receives click-to-filter interactions. Store implements it.
type FilterTarget interface {
	ApplyFilterAndSwitchView(key string, value any)
}

// MetricDescriptor describes one summary card. When FilterKey and
// FilterValue are both set, clicking the card applies that filter.
type MetricDescriptor struct {
	Key            string    `json:"key" yaml:"key"`
	Title          string    `json:"title" yaml:"title"`
	ValueFormatter Formatter `json:"-" yaml:"-"`
	Format         string    `json:"format,omitempty" yaml:"format,omitempty"`
	IconName       string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	FilterKey      string    `json:"filter_key,omitempty" yaml:"filter_key,omitempty"`
	FilterValue    any       `json:"filter_value,omitempty" yaml:"filter_value,omitempty"`
}

// Clickable reports whether the card carries a complete filter target
func (m MetricDescriptor) Clickable() bool {
	return m.FilterKey != "" && m.FilterValue != nil
}

// formatter returns the explicit formatter, else the named one
func (m MetricDescriptor) formatter() (Formatter, error) {
	if m.ValueFormatter != nil {
		return m.ValueFormatter, nil
	}
	return ResolveFormat(m.Format)
}

// RenderedMetric is a metric card ready for display
type RenderedMetric struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Value       string `json:"value"`
	Raw         any    `json:"raw,omitempty"`
	Icon        string `json:"icon,omitempty"`
	FilterKey   string `json:"filter_key,omitempty"`
	FilterValue any    `json:"filter_value,omitempty"`
	Clickable   bool   `json:"clickable"`
	Fallback    bool   `json:"fallback,omitempty"`
	OnClick     func() `json:"-"`
	Err         error  `json:"-"`
}

// DeriveMetrics renders every metric descriptor from pre-aggregated stats.
// A missing stat renders as NoData. A formatter that fails or panics falls
// back to the raw value and sets Err on that card only.
func DeriveMetrics(metrics []MetricDescriptor, stats Stats, target FilterTarget) []RenderedMetric {
	out := make([]RenderedMetric, len(metrics))
	for i, m := range metrics {
		rm := RenderedMetric{
			Key:   m.Key,
			Title: m.Title,
			Icon:  m.IconName,
		}

		raw, ok := stats[m.Key]
		if !ok || raw == nil {
			rm.Value = NoData
		} else {
			rm.Raw = raw
			rm.Value, rm.Err = formatMetric(m, raw)
			if rm.Err != nil {
				rm.Fallback = true
				rm.Value = rawString(raw)
			}
		}

		if m.Clickable() && target != nil {
			rm.Clickable = true
			rm.FilterKey = m.FilterKey
			rm.FilterValue = m.FilterValue
			key, value := m.FilterKey, m.FilterValue
			rm.OnClick = func() { target.ApplyFilterAndSwitchView(key, value) }
		}

		out[i] = rm
	}
	return out
}

func formatMetric(m MetricDescriptor, raw any) (string, error) {
	f, err := m.formatter()
	if err != nil {
		return "", err
	}
	if f == nil {
		return rawString(raw), nil
	}
	return safeFormat(f, raw)
}

// safeFormat runs a formatter, converting a panic into an error
func safeFormat(f Formatter, value any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatter panicked: %v", r)
		}
	}()
	return f(value)
}

func rawString(v any) string {
	if s, ok := Canonical(v); ok {
		return s
	}
	return NoData
}

// validateMetrics checks metric descriptors against the dashboard config and
// the defined stats.
func validateMetrics(metrics []MetricDescriptor, config Config, stats map[string]bool, result *ValidationResult) {
	for i, m := range metrics {
		fieldPath := fmt.Sprintf("metrics[%d]", i)
		if m.Key == "" {
			result.AddError(fieldPath+".key", CodeRequired, "Metric key is required")
		} else if !stats[m.Key] {
			result.AddError(fieldPath+".key", CodeUnknownStat, fmt.Sprintf("Stat '%s' is not defined", m.Key))
		}
		if m.Title == "" {
			result.AddError(fieldPath+".title", CodeRequired, "Metric title is required")
		}
		if m.ValueFormatter == nil {
			if _, err := ResolveFormat(m.Format); err != nil {
				result.AddError(fieldPath+".format", CodeInvalid, err.Error())
			}
		}
		validateClickTarget(fieldPath, m.FilterKey, m.FilterValue, config, result)
	}
}

// validateClickTarget requires both halves of a click target and a declared key
func validateClickTarget(fieldPath, key string, value any, config Config, result *ValidationResult) {
	switch {
	case key == "" && value == nil:
		return
	case key == "" || value == nil:
		result.AddError(fieldPath, CodeIncompleteClick, "filter_key and filter_value must be set together")
	case !config.Declares(key):
		result.AddError(fieldPath+".filter_key", CodeUnknownFilter, fmt.Sprintf("Filter '%s' is not declared", key))
	}
}
