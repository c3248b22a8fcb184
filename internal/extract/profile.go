package extract

// SiteProfile carries the CSS selectors for one source's schedule page
// layout. Sources rename their classes constantly, so selectors match on
// class substrings and every field also has a text-regex fallback in the
// container strategy.
type SiteProfile struct {
	// ContainerSelector matches one result card per bus offering.
	ContainerSelector string `yaml:"container_selector" mapstructure:"container_selector"`

	// Per-field selectors, scoped to a container in the container strategy
	// and to the whole document in the element strategy.
	OperatorSelector  string `yaml:"operator_selector" mapstructure:"operator_selector"`
	ServiceSelector   string `yaml:"service_selector" mapstructure:"service_selector"`
	DepartureSelector string `yaml:"departure_selector" mapstructure:"departure_selector"`
	ArrivalSelector   string `yaml:"arrival_selector" mapstructure:"arrival_selector"`
	FareSelector      string `yaml:"fare_selector" mapstructure:"fare_selector"`
	RatingSelector    string `yaml:"rating_selector" mapstructure:"rating_selector"`
	SeatsSelector     string `yaml:"seats_selector" mapstructure:"seats_selector"`
}

// DefaultProfile matches the result-card markup the major Indian bus
// aggregators have shipped for years.
func DefaultProfile() SiteProfile {
	return SiteProfile{
		ContainerSelector: `div[class*="timeFareBoWrap"], div[class*="bus-item"]`,
		OperatorSelector:  `div[class*="travelsName"]`,
		ServiceSelector:   `div[class*="busType"]`,
		DepartureSelector: `p[class*="boardingTime"]`,
		ArrivalSelector:   `p[class*="droppingTime"]`,
		FareSelector:      `p[class*="finalFare"], p[class*="fare"]`,
		RatingSelector:    `div[class*="rating"] span`,
		SeatsSelector:     `div[class*="seatsAvail"]`,
	}
}

// merged returns p with empty fields filled from the defaults, so a source
// override in sources.yaml only needs to name what differs.
func (p SiteProfile) merged() SiteProfile {
	d := DefaultProfile()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&p.ContainerSelector, d.ContainerSelector)
	fill(&p.OperatorSelector, d.OperatorSelector)
	fill(&p.ServiceSelector, d.ServiceSelector)
	fill(&p.DepartureSelector, d.DepartureSelector)
	fill(&p.ArrivalSelector, d.ArrivalSelector)
	fill(&p.FareSelector, d.FareSelector)
	fill(&p.RatingSelector, d.RatingSelector)
	fill(&p.SeatsSelector, d.SeatsSelector)
	return p
}
