package openai

import "sync"

// TokenPricing is USD per million tokens.
type TokenPricing struct {
	TextInputPerMillion   float64
	TextOutputPerMillion  float64
	AudioInputPerMillion  float64
	AudioOutputPerMillion float64
}

// realtimePricing lists published Realtime API rates by model.
var realtimePricing = map[string]TokenPricing{
	"gpt-4o-realtime-preview": {
		TextInputPerMillion:   5,
		TextOutputPerMillion:  20,
		AudioInputPerMillion:  40,
		AudioOutputPerMillion: 80,
	},
	"gpt-4o-mini-realtime-preview": {
		TextInputPerMillion:   0.6,
		TextOutputPerMillion:  2.4,
		AudioInputPerMillion:  10,
		AudioOutputPerMillion: 20,
	},
}

// Usage is the running token count of one session.
type Usage struct {
	TextInputTokens   int
	TextOutputTokens  int
	AudioInputTokens  int
	AudioOutputTokens int
}

// Cost estimates the USD cost of u under p.
func (u Usage) Cost(p TokenPricing) float64 {
	const million = 1_000_000
	return float64(u.TextInputTokens)/million*p.TextInputPerMillion +
		float64(u.TextOutputTokens)/million*p.TextOutputPerMillion +
		float64(u.AudioInputTokens)/million*p.AudioInputPerMillion +
		float64(u.AudioOutputTokens)/million*p.AudioOutputPerMillion
}

// usageMeter accumulates usage from response.done events.
type usageMeter struct {
	mu      sync.Mutex
	pricing TokenPricing
	priced  bool
	total   Usage
}

func newUsageMeter(model string) *usageMeter {
	p, ok := realtimePricing[model]
	return &usageMeter{pricing: p, priced: ok}
}

// add records one response and returns the session totals so far. Input and
// output counts include the audio tokens. cost is zero for models without
// known pricing.
func (m *usageMeter) add(inputTokens, outputTokens, audioIn, audioOut int) (total Usage, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total.AudioInputTokens += audioIn
	m.total.AudioOutputTokens += audioOut
	m.total.TextInputTokens += inputTokens - audioIn
	m.total.TextOutputTokens += outputTokens - audioOut

	if m.priced {
		cost = m.total.Cost(m.pricing)
	}
	return m.total, cost
}
