package locate

import (
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"remotehands/internal/template"
)

// Locator orchestrates the scanner chain and exposes the public locating
// contract. Strategies run in order until one produces a confident match;
// a new strategy slots in by appending to the chain.
type Locator struct {
	store *template.Store
	chain []Scanner
	multi *MultiInstanceFinder
	log   *slog.Logger
}

// NewLocator builds a locator over the given template store with the
// standard chain: feature matching, correlation fusion, edge-only fallback.
func NewLocator(store *template.Store, params Params, log *slog.Logger) *Locator {
	if log == nil {
		log = slog.Default()
	}
	params.Validate()
	return &Locator{
		store: store,
		chain: []Scanner{
			NewFeatureMatcher(params),
			NewCorrelationScanner(params),
			NewEdgeScanner(params),
		},
		multi: NewMultiInstanceFinder(params),
		log:   log,
	}
}

// Locate finds occurrence index of the named template in the capture.
//
// A found match is returned with ok == true. ok == false with a nil error
// means the element is simply not on screen; that is an expected outcome,
// not a failure. Errors are reserved for template loading problems, an
// invalid index, and an index beyond the occurrences found
// (*IndexOutOfRangeError, carrying the count).
func (l *Locator) Locate(name string, screen gocv.Mat, index int) (Match, bool, error) {
	if index < 0 {
		return Match{}, false, fmt.Errorf("invalid match index %d", index)
	}

	tpl, err := l.store.Get(name)
	if err != nil {
		return Match{}, false, err
	}

	if index > 0 {
		set := l.multi.FindAll(tpl, screen)
		if len(set) <= index {
			return Match{}, false, &IndexOutOfRangeError{Index: index, Count: len(set)}
		}
		m := set[index]
		l.log.Debug("located element instance",
			"template", name, "index", index, "x", m.X, "y", m.Y, "score", m.Score)
		return m, true, nil
	}

	for _, scanner := range l.chain {
		if m, ok := scanner.TryLocate(tpl, screen); ok {
			l.log.Debug("located element",
				"template", name, "method", m.Method, "x", m.X, "y", m.Y, "score", m.Score)
			return m, true, nil
		}
	}

	l.log.Debug("element not found", "template", name)
	return Match{}, false, nil
}

// FindAll returns every occurrence of the named template, ordered along the
// dominant layout axis.
func (l *Locator) FindAll(name string, screen gocv.Mat) (MatchSet, error) {
	tpl, err := l.store.Get(name)
	if err != nil {
		return nil, err
	}
	return l.multi.FindAll(tpl, screen), nil
}
