// Package gamestate reads facts from the host game. Every query may fail;
// a failed query leaves its field unknown and never aborts a snapshot.
package gamestate

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"sync"
)

// Query names understood by the host game
const (
	QueryPlayerZoneID         = "GetPlayerZoneID"
	QueryPlayerName           = "GetPlayerName"
	QueryPlayerID             = "GetPlayerID"
	QueryPlayerOccupiedShipID = "GetPlayerOccupiedShipID"
	QueryPlayerMoney          = "GetPlayerMoney"
	QueryCurrentGameTime      = "GetCurrentGameTime"
)

// ErrUnknownQuery is returned by providers that do not answer a query
var ErrUnknownQuery = errors.New("unknown game state query")

// Provider answers named queries against the running game
type Provider interface {
	Invoke(ctx context.Context, name string, args ...any) (any, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, name string, args ...any) (any, error)

// Invoke calls f
func (f ProviderFunc) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	return f(ctx, name, args...)
}

// StaticProvider answers queries from a fixed table. It is safe for concurrent use.
type StaticProvider struct {
	mu     sync.RWMutex
	values map[string]any
	errs   map[string]error
	calls  map[string]int
}

// NewStaticProvider creates a provider answering from values
func NewStaticProvider(values map[string]any) *StaticProvider {
	p := &StaticProvider{
		values: make(map[string]any, len(values)),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

// Set answers name with value from now on
func (p *StaticProvider) Set(name string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[name] = value
	delete(p.errs, name)
}

// Fail makes name return err from now on
func (p *StaticProvider) Fail(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[name] = err
}

// Calls returns how many times name was invoked
func (p *StaticProvider) Calls(name string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls[name]
}

// Invoke implements Provider
func (p *StaticProvider) Invoke(ctx context.Context, name string, _ ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[name]++
	if err, ok := p.errs[name]; ok {
		return nil, err
	}
	v, ok := p.values[name]
	if !ok {
		return nil, ErrUnknownQuery
	}
	return v, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		if i, ok := asInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}
