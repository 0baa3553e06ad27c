package generation

// Settings carries the model parameters for one generation call site.
// Precedence is layered: request override > stage settings > process
// defaults, applied with Merge.
type Settings struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Merge returns a new Settings with override's set fields applied on top
// of s. Neither value is mutated; repeated merges cannot leak overrides
// across call sites sharing a base.
func (s Settings) Merge(override Settings) Settings {
	out := s
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.Temperature != nil {
		t := *override.Temperature
		out.Temperature = &t
	}
	if override.MaxTokens > 0 {
		out.MaxTokens = override.MaxTokens
	}
	return out
}

// Options converts the settings into provider call options.
func (s Settings) Options() []Option {
	var opts []Option
	if s.Model != "" {
		opts = append(opts, WithModel(s.Model))
	}
	if s.Temperature != nil {
		opts = append(opts, WithTemperature(*s.Temperature))
	}
	if s.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(s.MaxTokens))
	}
	return opts
}

// Temp is a convenience for building temperature overrides.
func Temp(t float64) *float64 {
	return &t
}
