package graph

import (
	"fmt"
	"sync"
	"time"
)

// ModelPricing is the USD price per one million tokens.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// defaultModelPricing covers the models the bundled adapters default to.
// Unknown models are tracked with zero cost; use SetCustomPricing for them.
var defaultModelPricing = map[string]ModelPricing{
	"gpt-4o":                     {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":                {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4.1":                    {InputPer1M: 2.00, OutputPer1M: 8.00},
	"gpt-4.1-mini":               {InputPer1M: 0.40, OutputPer1M: 1.60},
	"gpt-3.5-turbo":              {InputPer1M: 0.50, OutputPer1M: 1.50},
	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-5-haiku-20241022":  {InputPer1M: 0.80, OutputPer1M: 4.00},
	"claude-sonnet-4-20250514":   {InputPer1M: 3.00, OutputPer1M: 15.00},
	"gemini-1.5-pro":             {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash":           {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-2.5-flash":           {InputPer1M: 0.30, OutputPer1M: 2.50},
}

// LLMCall records one oracle call.
type LLMCall struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
	NodeID       string
}

// CostTracker accumulates token usage and cost of oracle calls.
//
// Every review step records its call here when a tracker is configured.
// A tracker is safe for concurrent use and may be shared across runs.
type CostTracker struct {
	Currency string
	Pricing  map[string]ModelPricing

	calls        []LLMCall
	totalCost    float64
	modelCosts   map[string]float64
	inputTokens  int64
	outputTokens int64

	mu sync.RWMutex
}

// NewCostTracker creates a tracker with the built-in pricing table.
func NewCostTracker(currency string) *CostTracker {
	pricing := make(map[string]ModelPricing, len(defaultModelPricing))
	for k, v := range defaultModelPricing {
		pricing[k] = v
	}
	return &CostTracker{
		Currency:   currency,
		Pricing:    pricing,
		modelCosts: make(map[string]float64),
	}
}

// RecordLLMCall adds one call and returns its cost.
func (ct *CostTracker) RecordLLMCall(model string, inputTokens, outputTokens int, nodeID string) (float64, error) {
	if inputTokens < 0 || outputTokens < 0 {
		return 0, fmt.Errorf("negative token count for %s: in=%d out=%d", model, inputTokens, outputTokens)
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing := ct.Pricing[model]
	cost := float64(inputTokens)/1_000_000.0*pricing.InputPer1M +
		float64(outputTokens)/1_000_000.0*pricing.OutputPer1M

	ct.calls = append(ct.calls, LLMCall{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		Timestamp:    time.Now(),
		NodeID:       nodeID,
	})
	ct.totalCost += cost
	ct.modelCosts[model] += cost
	ct.inputTokens += int64(inputTokens)
	ct.outputTokens += int64(outputTokens)

	return cost, nil
}

// TotalCost returns the accumulated cost in USD.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.totalCost
}

// CostByModel returns a copy of per-model costs.
func (ct *CostTracker) CostByModel() map[string]float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	costs := make(map[string]float64, len(ct.modelCosts))
	for model, cost := range ct.modelCosts {
		costs[model] = cost
	}
	return costs
}

// Calls returns a copy of the call history.
func (ct *CostTracker) Calls() []LLMCall {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	calls := make([]LLMCall, len(ct.calls))
	copy(calls, ct.calls)
	return calls
}

// TokenUsage returns total input and output tokens.
func (ct *CostTracker) TokenUsage() (inputTokens, outputTokens int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.inputTokens, ct.outputTokens
}

// SetCustomPricing overrides or adds the price of a model.
func (ct *CostTracker) SetCustomPricing(model string, inputPer1M, outputPer1M float64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.Pricing == nil {
		ct.Pricing = make(map[string]ModelPricing)
	}
	ct.Pricing[model] = ModelPricing{InputPer1M: inputPer1M, OutputPer1M: outputPer1M}
}

func (ct *CostTracker) String() string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	return fmt.Sprintf("CostTracker{Calls: %d, TotalCost: $%.4f %s, InputTokens: %d, OutputTokens: %d}",
		len(ct.calls), ct.totalCost, ct.Currency, ct.inputTokens, ct.outputTokens)
}
