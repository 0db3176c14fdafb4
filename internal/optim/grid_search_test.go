package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/condensim/internal/dynamo"
	"github.com/san-kum/condensim/internal/experiment"
	"github.com/san-kum/condensim/internal/physics"
)

func dampedConfig() experiment.Config {
	return experiment.Config{
		Name:    "search",
		Params:  physics.Params{Variant: physics.VariantDamped, Pi0: 1, E: 2, A: 10, B: 10, L: 5, Sign: physics.SignMinus},
		Initial: dynamo.State{10, 1000, 0, 1},
		Span:    dynamo.Span{Start: 0, End: 0.01},
		Points:  10,
	}
}

func TestGridSearchFindsVanishingPotential(t *testing.T) {
	// With a = b and sign -1, cos 6θ = sin 6θ at θ = π/24.
	values := Linspace(0, 0.5, 101)
	gs, err := NewGridSearch([]string{experiment.ParamTheta0}, [][]float64{values})
	require.NoError(t, err)

	res, err := gs.Search(context.Background(), dampedConfig(), InitialScalar(experiment.ScalarAbsPotential0))
	require.NoError(t, err)
	assert.Equal(t, 101, res.Evaluated)
	assert.Zero(t, res.Failed)
	assert.Len(t, res.All, 101)
	assert.InDelta(t, math.Pi/24, res.Best.Params[experiment.ParamTheta0], 0.005)
}

func TestGridSearchTwoParameters(t *testing.T) {
	gs, err := NewGridSearch(
		[]string{"a", experiment.ParamTheta0},
		[][]float64{{1, 2, 3}, {0, 0.1}},
	)
	require.NoError(t, err)

	objective := func(_ context.Context, cfg experiment.Config) (float64, error) {
		return math.Abs(cfg.Params.A-2) + cfg.Initial[dynamo.Theta], nil
	}
	res, err := gs.Search(context.Background(), dampedConfig(), objective)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Evaluated)
	assert.Equal(t, map[string]float64{"a": 2, experiment.ParamTheta0: 0}, res.Best.Params)
}

func TestGridSearchSkipsFailures(t *testing.T) {
	gs, err := NewGridSearch([]string{"E"}, [][]float64{{1, 2, 3}})
	require.NoError(t, err)

	objective := func(_ context.Context, cfg experiment.Config) (float64, error) {
		switch cfg.Params.E {
		case 1:
			return 0, errors.New("boom")
		case 2:
			return math.NaN(), nil
		}
		return 5, nil
	}
	res, err := gs.Search(context.Background(), dampedConfig(), objective)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 3.0, res.Best.Params["E"])

	all := func(context.Context, experiment.Config) (float64, error) { return 0, errors.New("boom") }
	_, err = gs.Search(context.Background(), dampedConfig(), all)
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestGridSearchErrors(t *testing.T) {
	_, err := NewGridSearch([]string{"a"}, nil)
	assert.Error(t, err)
	_, err = NewGridSearch([]string{"a"}, [][]float64{{}})
	assert.Error(t, err)

	gs, err := NewGridSearch([]string{"mass"}, [][]float64{{1}})
	require.NoError(t, err)
	_, err = gs.Search(context.Background(), dampedConfig(), InitialScalar(experiment.ScalarAbsPotential0))
	assert.ErrorContains(t, err, "unknown param")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gs, err = NewGridSearch([]string{"a"}, [][]float64{{1}})
	require.NoError(t, err)
	_, err = gs.Search(ctx, dampedConfig(), InitialScalar(experiment.ScalarAbsPotential0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportScalar(t *testing.T) {
	obj := ReportScalar(experiment.ScalarSamples, nil)
	v, err := obj(context.Background(), dampedConfig())
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)

	_, err = ReportScalar("nope", nil)(context.Background(), dampedConfig())
	assert.Error(t, err)
}

func TestLinspace(t *testing.T) {
	assert.Nil(t, Linspace(0, 1, 0))
	assert.Equal(t, []float64{2}, Linspace(2, 3, 1))
	v := Linspace(0, 1, 5)
	assert.Len(t, v, 5)
	assert.InDelta(t, 0.25, v[1], 1e-15)
}
