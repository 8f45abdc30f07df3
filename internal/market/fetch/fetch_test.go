package fetch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"mandiprice/internal/market"
	"mandiprice/internal/market/fetch"
	"mandiprice/internal/market/lot"
	"mandiprice/internal/market/parse"
)

var factors = map[string]float64{"A": 1.15, "B": 1.0, "C": 0.85}

func newFetcher(src *MockSource) *fetch.Fetcher {
	return fetch.New(src, parse.New(lot.New(100)), fetch.Config{Factors: factors})
}

func TestFetch_InitialSuccess_SingleQuery(t *testing.T) {
	t.Parallel()

	// Arrange: the primary query answers immediately.
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().
		Query(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, prompt string) (string, error) {
			require.Contains(t, prompt, "Onion")
			require.Contains(t, prompt, "official sources")
			return "PRICE_PER_KG: 23.50 | SOURCE: Agmarknet | DATE: 2024-05-01", nil
		}).
		Times(1)

	// Act
	res := newFetcher(src).Fetch(t.Context(), "Onion", "")

	// Assert: available after one query, no broadened attempt.
	require.Equal(t, market.Available, res.Availability)
	require.Len(t, res.Records, 1)
	require.Equal(t, 23.50, res.Records[0].PerKg)
	require.Empty(t, res.FailureReason)
}

func TestFetch_GradeClauseInPrimaryQueryOnly(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().
		Query(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, prompt string) (string, error) {
			require.Contains(t, prompt, "quality similar to Grade A")
			return "PRICE_PER_KG: 20 | SOURCE: eNAM", nil
		}).
		Times(1)

	res := newFetcher(src).Fetch(t.Context(), "Tomato", "A")
	require.Equal(t, market.Available, res.Availability)
}

func TestFetch_FallbackReplacesInitialEntirely(t *testing.T) {
	t.Parallel()

	// Arrange: initial says not available, broadened answers with two records.
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	gomock.InOrder(
		src.EXPECT().
			Query(gomock.Any(), gomock.Any()).
			Return("Not available", nil),
		src.EXPECT().
			Query(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, prompt string) (string, error) {
				require.Contains(t, prompt, "Agmarknet or eNAM")
				return "PRICE_PER_KG: 20 | SOURCE: X\nPRICE_PER_KG: 24 | SOURCE: Y", nil
			}),
	)

	// Act
	res := newFetcher(src).Fetch(t.Context(), "Onion", "")

	// Assert: only the broadened records contribute.
	require.Equal(t, market.Available, res.Availability)
	require.Len(t, res.Records, 2)
	require.Equal(t, "X", res.Records[0].Source)
	require.Equal(t, "Y", res.Records[1].Source)
}

func TestFetch_BothStagesEmpty_Unavailable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().
		Query(gomock.Any(), gomock.Any()).
		Return("Not available", nil).
		Times(2)

	res := newFetcher(src).Fetch(t.Context(), "Onion", "")
	require.Equal(t, market.Unavailable, res.Availability)
	require.Empty(t, res.Records)
	require.Empty(t, res.FailureReason)
}

func TestFetch_TransportFailureAtInitial_FallsBack(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	gomock.InOrder(
		src.EXPECT().
			Query(gomock.Any(), gomock.Any()).
			Return("", errors.New("connection reset")),
		src.EXPECT().
			Query(gomock.Any(), gomock.Any()).
			Return("MIN_PRICE_KG: 18 | MAX_PRICE_KG: 22 | SOURCE: eNAM", nil),
	)

	res := newFetcher(src).Fetch(t.Context(), "Onion", "")
	require.Equal(t, market.Available, res.Availability)
	require.Len(t, res.Records, 1)
	require.Equal(t, market.KindRange, res.Records[0].Kind)
}

func TestFetch_TransportFailureAtBroadened_KeepsCause(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	gomock.InOrder(
		src.EXPECT().
			Query(gomock.Any(), gomock.Any()).
			Return("Not available", nil),
		src.EXPECT().
			Query(gomock.Any(), gomock.Any()).
			Return("", errors.New("gemini: generate: 503")),
	)

	res := newFetcher(src).Fetch(t.Context(), "Onion", "")
	require.Equal(t, market.Unavailable, res.Availability)
	require.Contains(t, res.FailureReason, "503")
}

func TestEstimate_EndToEnd_GradeAdjusted(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().
		Query(gomock.Any(), gomock.Any()).
		Return("PRICE_PER_KG: 20 | SOURCE: X\nPRICE_PER_KG: 22 | SOURCE: Y\nPRICE_PER_KG: 24 | SOURCE: Z", nil).
		Times(1)

	qa := &market.QualityAssessment{Grade: "A"}
	est := newFetcher(src).Estimate(t.Context(), "Onion", qa)

	require.Equal(t, market.Available, est.Availability)
	require.InDelta(t, 25.30, est.PerKg, 0.005)
	require.Len(t, est.Sources, 3)
	require.Equal(t, 20.0, est.Sources[0].PerKg, "per-source values stay unadjusted")
	require.Equal(t, "INR", est.Currency)
}

func TestEstimate_Unavailable_IsAValueNotAnError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().
		Query(gomock.Any(), gomock.Any()).
		Return("Not available", nil).
		Times(2)

	est := newFetcher(src).Estimate(t.Context(), "Saffron", nil)
	require.Equal(t, market.Unavailable, est.Availability)
	require.Zero(t, est.PerKg)
	require.Empty(t, est.Sources)
}

func TestEstimate_QuintalAnswerNormalized(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().
		Query(gomock.Any(), gomock.Any()).
		Return("PRICE_PER_QUINTAL: 2350 | SOURCE: APMC", nil).
		Times(1)

	est := newFetcher(src).Estimate(t.Context(), "Wheat", nil)
	require.Equal(t, market.Available, est.Availability)
	require.InDelta(t, 23.50, est.PerKg, 1e-9)
}
