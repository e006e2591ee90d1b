package decoders

import (
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DecoderRegistry = (*Registry)(nil)

// Registry dispatches media to the highest-priority decoder for its MIME type.
type Registry struct {
	mu       sync.RWMutex
	decoders []driven.MediaDecoder
}

// NewRegistry creates a registry holding the given decoders.
func NewRegistry(decoders ...driven.MediaDecoder) *Registry {
	r := &Registry{}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

// Register adds a decoder to the registry.
func (r *Registry) Register(decoder driven.MediaDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders = append(r.decoders, decoder)
	// Stable so equal priorities keep registration order.
	sort.SliceStable(r.decoders, func(i, j int) bool {
		return r.decoders[i].Priority() > r.decoders[j].Priority()
	})
}

// Lookup returns the preferred decoder for mimeType.
func (r *Registry) Lookup(mimeType string) (driven.MediaDecoder, error) {
	mt := normaliseMIME(mimeType)
	if mt == "" {
		return nil, fmt.Errorf("%w: empty MIME type", domain.ErrUnsupportedFormat)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.decoders {
		for _, supported := range d.SupportedMIMETypes() {
			if matchMIME(supported, mt) {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, mt)
}

// SupportedMIMETypes returns all MIME types that can be decoded.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, d := range r.decoders {
		for _, mt := range d.SupportedMIMETypes() {
			if !seen[mt] {
				seen[mt] = true
				types = append(types, mt)
			}
		}
	}
	sort.Strings(types)
	return types
}

func normaliseMIME(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}

func matchMIME(pattern, mt string) bool {
	if family, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mt, family+"/")
	}
	return pattern == mt
}
