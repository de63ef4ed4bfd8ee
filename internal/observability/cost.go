package observability

import (
	"strconv"
	"strings"
)

const (
	tokensPerMillion    = 1_000_000.0
	costFormatPrecision = 6
	defaultPricingModel = "gemini-3-flash-preview"
)

// ModelPricing contains pricing information per 1M tokens
type ModelPricing struct {
	InputPricePer1M  float64 // Price per 1M input tokens in USD
	OutputPricePer1M float64 // Price per 1M output tokens in USD
}

// PricingTable contains list prices for the models the learning service calls
var PricingTable = map[string]ModelPricing{
	"gemini-3-flash-preview":       {InputPricePer1M: 0.50, OutputPricePer1M: 3.00},
	"gemini-3-pro-preview":         {InputPricePer1M: 2.00, OutputPricePer1M: 12.00},
	"gemini-2.5-flash-preview-tts": {InputPricePer1M: 0.50, OutputPricePer1M: 10.00},
	"gemini-2.5-flash-image":       {InputPricePer1M: 0.30, OutputPricePer1M: 30.00},
	"gpt-5":                        {InputPricePer1M: 1.25, OutputPricePer1M: 10.00},
	"gpt-5-mini":                   {InputPricePer1M: 0.25, OutputPricePer1M: 2.00},
	"gpt-4o":                       {InputPricePer1M: 2.50, OutputPricePer1M: 10.00},
	"gpt-4o-mini":                  {InputPricePer1M: 0.15, OutputPricePer1M: 0.60},
}

// PricingFor returns the pricing of model. Dated or suffixed variants ("gpt-4o-2024-08-06")
// use the longest matching prefix; unknown models fall back to the default text model.
func PricingFor(model string) ModelPricing {
	if pricing, ok := PricingTable[model]; ok {
		return pricing
	}

	best := ""
	for name := range PricingTable {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return PricingTable[best]
	}
	return PricingTable[defaultPricingModel]
}

// CalculateCost calculates the cost in USD of one model call
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing := PricingFor(model)
	inputCost := (float64(inputTokens) / tokensPerMillion) * pricing.InputPricePer1M
	outputCost := (float64(outputTokens) / tokensPerMillion) * pricing.OutputPricePer1M
	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}
