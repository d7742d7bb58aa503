package model

// Strategy selects how raw content for a source is turned into records.
type Strategy string

const (
	// StrategyStructural applies fixed selectors to a known page layout.
	StrategyStructural Strategy = "structural"
	// StrategyModel prompts a text-generation model with a target schema.
	StrategyModel Strategy = "model"
)

// SourceDescriptor identifies one fetch target and its extraction strategy.
// Exactly one of URL or Query is set: URL means a direct page fetch, Query
// means a search-listing fetch bounded by MaxResults.
type SourceDescriptor struct {
	Name       string   `json:"name" mapstructure:"name"`
	URL        string   `json:"url,omitempty" mapstructure:"url"`
	Query      string   `json:"query,omitempty" mapstructure:"query"`
	MaxResults int      `json:"max_results,omitempty" mapstructure:"max_results"`
	Strategy   Strategy `json:"strategy" mapstructure:"strategy"`
}

// IsListing reports whether the source is a search-listing fetch.
func (s SourceDescriptor) IsListing() bool { return s.Query != "" }
