package models

// Outcome is the terminal result of one weather request: either Loaded or
// Failed.
type Outcome interface {
	isOutcome()
}

type Loaded struct {
	Weather      WeatherRecord
	LocationName string
}

type Failed struct {
	Message string
}

func (Loaded) isOutcome() {}
func (Failed) isOutcome() {}
