// Package toolkit is the seam between a worker and the notation engine it
// hosts. The engine is a black box: it loads a document, reports a page
// count, renders pages to SVG markup and applies edit actions.
package toolkit

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fulldump/scorepane/protocol"
)

// Toolkit is one engine instance. Pages are one-based here, matching what
// engines usually expose; workers translate at their boundary.
type Toolkit interface {
	SetOptions(options protocol.RenderOptions) error
	LoadData(document string) error
	PageCount() int
	RenderPage(page int) (string, error)
	Edit(action protocol.EditAction) error
	Document() (string, error)
}

// Loader resolves an engine location into a fresh toolkit instance.
type Loader func(location string) (Toolkit, error)

// Factory builds a toolkit for the part of a location after "scheme:".
type Factory func(arg string) (Toolkit, error)

var ErrUnknownEngine = errors.New("unknown engine location")

var (
	factoriesMutex sync.RWMutex
	factories      = map[string]Factory{}
)

// Register makes an engine available under scheme, so that the location
// "scheme:arg" resolves to factory(arg).
func Register(scheme string, factory Factory) {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()
	factories[scheme] = factory
}

// Load is the default Loader.
func Load(location string) (Toolkit, error) {
	scheme, arg, _ := strings.Cut(location, ":")

	factoriesMutex.RLock()
	factory, exists := factories[scheme]
	factoriesMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownEngine, location)
	}

	t, err := factory(arg)
	if err != nil {
		return nil, fmt.Errorf("load engine '%s': %w", location, err)
	}
	return t, nil
}
