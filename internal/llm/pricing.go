package llm

import "strings"

// Pricing is a model's list price in USD per million tokens.
type Pricing struct {
	Input  float64
	Output float64
}

var prices = map[string]Pricing{
	"gemini-2.5-flash":          {Input: 0.30, Output: 2.50},
	"gemini-2.5-flash-lite":     {Input: 0.10, Output: 0.40},
	"gemini-2.5-pro":            {Input: 1.25, Output: 10.00},
	"gemini-2.0-flash":          {Input: 0.10, Output: 0.40},
	"gpt-4o":                    {Input: 2.50, Output: 10.00},
	"gpt-4o-mini":               {Input: 0.15, Output: 0.60},
	"claude-haiku-4-5-20251001": {Input: 1.00, Output: 5.00},
	"claude-sonnet-4-5":         {Input: 3.00, Output: 15.00},
}

// PriceOf looks up model, falling back to the longest known prefix so dated
// or suffixed model names ("gpt-4o-2024-08-06") still resolve.
func PriceOf(model string) (Pricing, bool) {
	if p, ok := prices[model]; ok {
		return p, true
	}
	var best string
	for name := range prices {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return Pricing{}, false
	}
	return prices[best], true
}

// EstimateCost returns the USD cost of a call, or 0 for unknown models.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := PriceOf(model)
	if !ok {
		return 0
	}
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1e6
}

// EstimateTokens approximates a token count at four bytes per token. Used
// when a backend does not report usage.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return max(len(text)/4, 1)
}
