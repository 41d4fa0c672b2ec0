package additive

// Seasonality is one periodic component expressed as a Fourier series
type Seasonality struct {
	Name         string
	Period       float64 // days
	FourierOrder int
	PriorScale   float64
}

// Config holds the model policy
type Config struct {
	Seasonalities         []Seasonality
	ChangepointPriorScale float64
	NChangepoints         int
	ChangepointRange      float64 // fraction of history eligible for changepoints
	TrendPriorScale       float64
	IntervalWidth         float64
}

// DefaultConfig returns the fixed forecasting policy: no automatic yearly
// seasonality, explicit yearly/weekly/monthly terms and a rigid trend.
func DefaultConfig() Config {
	return Config{
		Seasonalities: []Seasonality{
			{Name: "yearly", Period: 365.25, FourierOrder: 9, PriorScale: 10},
			{Name: "weekly", Period: 7, FourierOrder: 3, PriorScale: 10},
			{Name: "monthly", Period: 30.5, FourierOrder: 5, PriorScale: 10},
		},
		ChangepointPriorScale: 0.001,
		NChangepoints:         25,
		ChangepointRange:      0.8,
		TrendPriorScale:       5,
		IntervalWidth:         0.8,
	}
}

// featureCount returns the number of seasonal columns
func (c Config) featureCount() int {
	n := 0
	for _, s := range c.Seasonalities {
		n += 2 * s.FourierOrder
	}
	return n
}
