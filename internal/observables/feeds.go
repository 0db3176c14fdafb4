package observables

import (
	"errors"
	"fmt"

	"github.com/san-kum/condensim/internal/signal"
	"github.com/san-kum/condensim/internal/sim"
	"github.com/san-kum/condensim/internal/smoothing"
)

var ErrUnknownSource = errors.New("observables: unknown source")

// Source selects which version of a quantity feeds the extractor.
type Source string

const (
	SourceRaw                   Source = "raw"
	SourceMovingAverage         Source = Source(smoothing.KindMovingAverage)
	SourceSavitzkyGolay         Source = Source(smoothing.KindSavitzkyGolay)
	SourceAdaptiveMovingAverage Source = Source(smoothing.KindAdaptiveMovingAverage)
	SourceAdaptiveSavitzkyGolay Source = Source(smoothing.KindAdaptiveSavitzkyGolay)
)

func Sources() []Source {
	return []Source{
		SourceRaw,
		SourceMovingAverage,
		SourceSavitzkyGolay,
		SourceAdaptiveMovingAverage,
		SourceAdaptiveSavitzkyGolay,
	}
}

func ParseSource(s string) (Source, error) {
	if s == "" {
		return SourceRaw, nil
	}
	for _, src := range Sources() {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// Feeds picks a source per quantity. Zero values mean raw.
type Feeds struct {
	Rho        Source
	RhoPrime   Source
	Theta      Source
	ThetaPrime Source
}

// FromResult returns the raw components of a trajectory.
func FromResult(r *sim.Result) Inputs {
	return Inputs{
		Times:      r.Time(),
		Rho:        r.Rho(),
		RhoPrime:   r.RhoPrime(),
		Theta:      r.Theta(),
		ThetaPrime: r.ThetaPrime(),
	}
}

// Resolve replaces each raw quantity with the output of the filter
// registered for its source. Filters are applied once per quantity.
func (f Feeds) Resolve(raw Inputs, filters map[Source]smoothing.Filter) (Inputs, error) {
	if err := raw.validate(); err != nil {
		return Inputs{}, err
	}
	out := raw
	for _, q := range []struct {
		src Source
		sig *signal.Signal
	}{
		{f.Rho, &out.Rho},
		{f.RhoPrime, &out.RhoPrime},
		{f.Theta, &out.Theta},
		{f.ThetaPrime, &out.ThetaPrime},
	} {
		if q.src == "" || q.src == SourceRaw {
			continue
		}
		filter, ok := filters[q.src]
		if !ok {
			return Inputs{}, fmt.Errorf("%w: no filter for %s (feeding %s)", ErrUnknownSource, q.src, q.sig.Name())
		}
		s, err := filter.Apply(*q.sig)
		if err != nil {
			return Inputs{}, fmt.Errorf("observables: feed %s: %w", q.sig.Name(), err)
		}
		*q.sig = s
	}
	return out, nil
}
