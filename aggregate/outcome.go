package aggregate

import "github.com/jonwraymond/productsearch/catalog"

// UnknownError is the message recorded when a provider fails without one.
const UnknownError = "unknown error"

// OutcomeData is the payload of a successful outcome.
type OutcomeData struct {
	URL      string            `json:"url"`
	Products []catalog.Product `json:"products"`
}

// Outcome is the settled result of one provider for one run.
//
// It is either a success (Success true, Data set) or a failure (Success
// false, Error set). Use the Success and Failure constructors.
type Outcome struct {
	Success      bool         `json:"success"`
	Site         string       `json:"site"`
	ProductCount int          `json:"productCount"`
	Data         *OutcomeData `json:"data,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Success records a provider that returned data.
func Success(site string, data catalog.Data) Outcome {
	products := data.Products
	if products == nil {
		products = []catalog.Product{}
	}
	return Outcome{
		Success:      true,
		Site:         site,
		ProductCount: data.Count(),
		Data: &OutcomeData{
			URL:      data.URL,
			Products: products,
		},
	}
}

// Failure records a provider that errored or timed out.
func Failure(site, message string) Outcome {
	if message == "" {
		message = UnknownError
	}
	return Outcome{
		Success: false,
		Site:    site,
		Error:   message,
	}
}
