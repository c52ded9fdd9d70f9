// Package locateintel implements the IntelligentLocationParser: structured
// location enrichment via an OpenAI-compatible LLM endpoint, with batching,
// an in-memory (optionally Redis-backed) cache, confidence gating, and a
// deterministic fallback so the pipeline always completes.
package locateintel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"jobfleet/internal/domain"
)

var locationPrefixRe = regexp.MustCompile(`(?i)^\s*locations?\s*:?\s*`)

const fallbackConfidenceThreshold = 0.5

// Cache is the pluggable storage behind parsed-location lookups. The
// in-memory implementation is required; Redis is an optional second tier
// that lets results survive across fleet runs.
type Cache interface {
	Get(ctx context.Context, key string) (domain.Location, bool)
	Set(ctx context.Context, key string, loc domain.Location)
}

// Parser is the IntelligentLocationParser.
type Parser struct {
	log        *slog.Logger
	client     *chatClient
	cache      Cache
	maxRetries int

	mu sync.Mutex
}

// New constructs a Parser. enabled=false (or a missing API key) makes
// every call fall through to ParseLocation-based fallback without any
// network access, matching the "LLM disabled" configuration path.
func New(log *slog.Logger, enabled bool, apiKey, baseURL, model string, timeout time.Duration, maxRetries int, cache Cache) *Parser {
	p := &Parser{log: log, cache: cache, maxRetries: maxRetries}
	if enabled && apiKey != "" {
		p.client = newChatClient(apiKey, baseURL, model, timeout)
	}
	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	return p
}

func cacheKey(raw string) string {
	return "loc::" + strings.ToLower(strings.TrimSpace(raw))
}

// fallback builds the low-confidence location produced when the LLM is
// disabled, fails, or returns a low-confidence result. Its city cleanup
// mirrors each platform parser's ParseLocation (strip a leading
// "location(s)" label) without depending on any specific platform package.
func fallback(raw string) domain.Location {
	return domain.Location{
		City:       strings.TrimSpace(locationPrefixRe.ReplaceAllString(raw, "")),
		Country:    "Unknown",
		Region:     "Unknown",
		Confidence: 0.1,
	}
}

func unknownLocation() domain.Location {
	return domain.Location{City: "Unknown", Country: "Unknown", Region: "Unknown", Confidence: 0.0}
}

// ParseSingle resolves one raw location string via cache, LLM, and
// confidence-gated fallback, in that order.
func (p *Parser) ParseSingle(ctx context.Context, raw string) domain.Location {
	if strings.TrimSpace(raw) == "" {
		return unknownLocation()
	}

	key := cacheKey(raw)
	if loc, ok := p.cache.Get(ctx, key); ok {
		return loc
	}

	var result domain.Location
	if p.client == nil {
		result = fallback(raw)
	} else {
		parsed, err := p.callLLM(ctx, fmt.Sprintf("Parse this location: %s", raw))
		if err != nil || len(parsed) != 1 || !parsed[0].valid() {
			p.log.Warn("locateintel: single parse failed, using fallback", "location", raw, "err", err)
			result = fallback(raw)
		} else if parsed[0].Confidence < fallbackConfidenceThreshold {
			result = fallback(raw)
		} else {
			result = domain.Location{
				City:       parsed[0].City,
				Country:    parsed[0].Country,
				Region:     parsed[0].Region,
				Confidence: parsed[0].Confidence,
			}
		}
	}

	p.cache.Set(ctx, key, result)
	return result
}

// ParseBatch deduplicates raw against the cache, issues one LLM call for
// every miss, validates and confidence-gates each result, and returns
// values in input order. Empty input makes no network call.
func (p *Parser) ParseBatch(ctx context.Context, raws []string) []domain.Location {
	if len(raws) == 0 {
		return nil
	}

	results := make([]domain.Location, len(raws))
	resolved := make([]bool, len(raws))

	// uniqueMisses preserves first-seen order among keys not already cached.
	var uniqueMisses []string
	missIndex := map[string][]int{}

	for i, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			results[i] = unknownLocation()
			resolved[i] = true
			continue
		}
		key := cacheKey(raw)
		if loc, ok := p.cache.Get(ctx, key); ok {
			results[i] = loc
			resolved[i] = true
			continue
		}
		if _, seen := missIndex[key]; !seen {
			uniqueMisses = append(uniqueMisses, raw)
		}
		missIndex[key] = append(missIndex[key], i)
	}

	if len(uniqueMisses) == 0 {
		return results
	}

	var parsed []rawParsed
	var err error
	if p.client != nil {
		parsed, err = p.callLLM(ctx, batchPrompt(uniqueMisses))
	} else {
		err = fmt.Errorf("locateintel: llm disabled")
	}

	for i, raw := range uniqueMisses {
		var loc domain.Location
		if err != nil || i >= len(parsed) || !parsed[i].valid() {
			loc = fallback(raw)
		} else if parsed[i].Confidence < fallbackConfidenceThreshold {
			loc = fallback(raw)
		} else {
			loc = domain.Location{
				City:       parsed[i].City,
				Country:    parsed[i].Country,
				Region:     parsed[i].Region,
				Confidence: parsed[i].Confidence,
			}
		}

		key := cacheKey(raw)
		p.cache.Set(ctx, key, loc)
		for _, idx := range missIndex[key] {
			results[idx] = loc
			resolved[idx] = true
		}
	}

	for i := range results {
		if !resolved[i] {
			results[i] = unknownLocation()
		}
	}
	return results
}

func batchPrompt(locations []string) string {
	var b strings.Builder
	b.WriteString("Parse these locations:\n")
	for i, loc := range locations {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(loc)
		b.WriteString("\n")
	}
	return b.String()
}

// callLLM issues one LLM call with up to p.maxRetries attempts and
// exponential backoff between attempts, starting at 1s and doubling (1s
// then 2s for three attempts), parsing either a single object or an
// array response into a uniform slice.
func (p *Parser) callLLM(ctx context.Context, prompt string) ([]rawParsed, error) {
	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt < p.maxRetries; attempt++ {
		content, err := p.client.complete(ctx, prompt)
		if err == nil {
			cleaned := extractJSON(content)
			if results, perr := decodeLocations(cleaned); perr == nil {
				return results, nil
			} else {
				err = perr
			}
		}

		lastErr = err
		if attempt < p.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("locateintel: llm request failed after %d attempts: %w", p.maxRetries, lastErr)
}

// decodeLocations accepts either a single JSON object or an array and
// returns a uniform slice.
func decodeLocations(cleaned string) ([]rawParsed, error) {
	var arr []rawParsed
	if err := json.Unmarshal([]byte(cleaned), &arr); err == nil {
		return arr, nil
	}

	var single rawParsed
	if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
		return nil, err
	}
	return []rawParsed{single}, nil
}
