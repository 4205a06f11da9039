package item

import (
	"fmt"
	"sync/atomic"

	"github.com/l1jgo/itemstack/internal/codec"
	"go.uber.org/zap"
)

// QuantityPolicy bounds SetQuantity. The zero policy accepts any value,
// negative ones included.
type QuantityPolicy struct {
	Enforce bool
	Min     int
	Max     int
}

func (p QuantityPolicy) Check(n int) error {
	if !p.Enforce {
		return nil
	}
	if n < p.Min || n > p.Max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrQuantityOutOfRange, n, p.Min, p.Max)
	}
	return nil
}

// Env carries the collaborators a Record needs: the type registry, the
// live item container, the payload codec and a logger.
type Env struct {
	Registry  Registry
	Container Container
	Codec     codec.Codec
	Log       *zap.Logger
	Quantity  QuantityPolicy
}

// NewEnv fills nil collaborators with inert defaults: nothing resolves,
// everything materialises as air, payloads are JSON and logs are dropped.
func NewEnv(reg Registry, cont Container, c codec.Codec, log *zap.Logger) *Env {
	e := &Env{Registry: reg, Container: cont, Codec: c, Log: log}
	return e.normalize()
}

func (e *Env) normalize() *Env {
	if e.Registry == nil {
		e.Registry = noRegistry{}
	}
	if e.Container == nil {
		e.Container = noContainer{}
	}
	if e.Codec == nil {
		e.Codec = codec.JSON{}
	}
	if e.Log == nil {
		e.Log = zap.NewNop()
	}
	return e
}

var defaultEnv atomic.Pointer[Env]

func init() {
	defaultEnv.Store(NewEnv(nil, nil, nil, nil))
}

// Default returns the environment used by records that were created
// without one, such as records decoded from a configuration document.
func Default() *Env {
	return defaultEnv.Load()
}

// SetDefault replaces the default environment. Call it once at startup,
// before documents holding records are loaded.
func SetDefault(e *Env) {
	defaultEnv.Store(e.normalize())
}
