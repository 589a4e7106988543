package provider

import (
	"fmt"

	"wallet-service/internal/models"
)

// Factory holds the registered provider adapters.
type Factory struct {
	adapters map[models.ProviderType]Adapter
}

// NewFactory returns a factory with all built-in adapters registered.
func NewFactory() *Factory {
	f := &Factory{adapters: make(map[models.ProviderType]Adapter)}
	f.Register(NewStripeAdapter())
	f.Register(NewRazorpayAdapter())
	f.Register(NewPayDunyaAdapter())
	return f
}

// Register adds or replaces an adapter.
func (f *Factory) Register(a Adapter) {
	f.adapters[a.Type()] = a
}

// Get returns the adapter for a provider type.
func (f *Factory) Get(t models.ProviderType) (Adapter, error) {
	a, ok := f.adapters[t]
	if !ok {
		return nil, fmt.Errorf("unsupported payment provider: %s", t)
	}
	return a, nil
}

// Types lists the registered provider types.
func (f *Factory) Types() []models.ProviderType {
	out := make([]models.ProviderType, 0, len(f.adapters))
	for t := range f.adapters {
		out = append(out, t)
	}
	return out
}
