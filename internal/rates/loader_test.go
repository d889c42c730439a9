package rates

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kasirhub/backend-pos/internal/billing"
)

type fakeSource struct {
	rates billing.Rates
	err   error
	calls int
}

func (f *fakeSource) FetchRates(context.Context) (billing.Rates, error) {
	f.calls++
	return f.rates, f.err
}

func TestCurrentDefaultsToZeroBeforeFirstRefresh(t *testing.T) {
	l := &Loader{Source: &fakeSource{rates: billing.Rates{TaxPct: 11}}}
	require.Equal(t, billing.Rates{}, l.Current())
}

func TestRefreshUpdatesCurrent(t *testing.T) {
	src := &fakeSource{rates: billing.Rates{DiscountPct: 10, ChargePct: 5, TaxPct: 8}}
	l := &Loader{Source: src}
	require.NoError(t, l.Refresh(context.Background()))
	require.Equal(t, src.rates, l.Current())
	require.Equal(t, 1, src.calls)
}

func TestRefreshFailureKeepsLastKnownRates(t *testing.T) {
	src := &fakeSource{rates: billing.Rates{TaxPct: 8}}
	l := &Loader{Source: src}
	require.NoError(t, l.Refresh(context.Background()))

	src.err = errors.New("settings unreachable")
	require.Error(t, l.Refresh(context.Background()))
	require.Equal(t, billing.Rates{TaxPct: 8}, l.Current())
}

func TestRefreshRejectsNegativeRates(t *testing.T) {
	src := &fakeSource{rates: billing.Rates{DiscountPct: 10}}
	l := &Loader{Source: src}
	require.NoError(t, l.Refresh(context.Background()))

	src.rates = billing.Rates{DiscountPct: -1}
	err := l.Refresh(context.Background())
	require.ErrorIs(t, err, billing.ErrInvalidRate)
	require.Equal(t, billing.Rates{DiscountPct: 10}, l.Current())
}

func TestNilLoaderYieldsZeroRates(t *testing.T) {
	var l *Loader
	require.Equal(t, billing.Rates{}, l.Current())
}
