// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

// fakeConnector returns canned documents after an optional delay.
type fakeConnector struct {
	id    types.SourceID
	docs  []types.RawDocument
	err   error
	delay time.Duration
	panic bool
}

func (f *fakeConnector) Name() types.SourceID { return f.id }

func (f *fakeConnector) Fetch(ctx context.Context, _ string, _ int) ([]types.RawDocument, error) {
	if f.panic {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.docs, f.err
}

func rawDoc(source types.SourceID, title string) types.RawDocument {
	return types.RawDocument{Source: source, Text: title + " text", Metadata: map[string]string{types.MetaTitle: title}}
}

func TestFetchAll_OrderIndependentOfCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	connectors := []Connector{
		&fakeConnector{id: types.SourceWikipedia, docs: []types.RawDocument{rawDoc(types.SourceWikipedia, "w")}, delay: 30 * time.Millisecond},
		&fakeConnector{id: types.SourceArxiv, docs: []types.RawDocument{rawDoc(types.SourceArxiv, "a")}},
		&fakeConnector{id: types.SourceWeb, docs: []types.RawDocument{rawDoc(types.SourceWeb, "x")}, delay: 10 * time.Millisecond},
	}
	outcomes := FetchAll(context.Background(), connectors, "q", 5, 0, nil)
	require.Len(t, outcomes, 3)

	var got []string
	for _, d := range Documents(outcomes) {
		got = append(got, d.Metadata[types.MetaTitle])
	}
	assert.Equal(t, []string{"w", "a", "x"}, got)
}

func TestFetchAll_IsolatesFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	connectors := []Connector{
		&fakeConnector{id: types.SourceWikipedia, docs: []types.RawDocument{rawDoc(types.SourceWikipedia, "w")}},
		&fakeConnector{id: types.SourceArxiv, err: fetchErr(types.SourceArxiv, KindRateLimited, "slow down")},
		&fakeConnector{id: types.SourceYouTube, err: errors.New("plain error")},
		&fakeConnector{id: types.SourceWeb, panic: true},
	}
	outcomes := FetchAll(context.Background(), connectors, "q", 5, 0, zap.New(core))

	assert.Nil(t, outcomes[0].Err)
	assert.Len(t, outcomes[0].Documents, 1)

	require.NotNil(t, outcomes[1].Err)
	assert.Equal(t, KindRateLimited, outcomes[1].Err.Kind)

	require.NotNil(t, outcomes[2].Err)
	assert.Equal(t, KindNetwork, outcomes[2].Err.Kind)
	assert.Equal(t, types.SourceYouTube, outcomes[2].Err.Source)

	require.NotNil(t, outcomes[3].Err)
	assert.Equal(t, KindParse, outcomes[3].Err.Kind)

	assert.Equal(t, 3, logs.FilterMessage("source skipped").Len())
}

func TestFetchAll_TimeoutIsNetworkFailure(t *testing.T) {
	connectors := []Connector{
		&fakeConnector{id: types.SourceArxiv, delay: time.Second},
		&fakeConnector{id: types.SourceWikipedia, docs: []types.RawDocument{rawDoc(types.SourceWikipedia, "w")}},
	}
	start := time.Now()
	outcomes := FetchAll(context.Background(), connectors, "q", 5, 20*time.Millisecond, nil)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.NotNil(t, outcomes[0].Err)
	assert.Equal(t, KindNetwork, outcomes[0].Err.Kind)
	assert.ErrorIs(t, outcomes[0].Err, context.DeadlineExceeded)
	assert.Nil(t, outcomes[1].Err)
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{401, KindAuthMissing},
		{403, KindAuthMissing},
		{429, KindRateLimited},
		{500, KindNetwork},
		{503, KindNetwork},
		{400, KindParse},
		{404, KindParse},
	}
	for _, tt := range tests {
		fe := statusError(types.SourceArxiv, tt.status)
		assert.Equal(t, tt.want, fe.Kind, "status %d", tt.status)
	}
}

func TestFetchError(t *testing.T) {
	inner := errors.New("no key")
	fe := &FetchError{Source: types.SourceYouTube, Kind: KindAuthMissing, Err: inner}
	assert.Equal(t, "youtube: auth_missing: no key", fe.Error())
	assert.ErrorIs(t, fe, inner)
	assert.Same(t, fe, AsFetchError(types.SourceWeb, fe))
	assert.Nil(t, AsFetchError(types.SourceWeb, nil))
}

func TestAsFetchError_FillsMissingFields(t *testing.T) {
	bare := &FetchError{Kind: KindAuthMissing}
	fe := AsFetchError(types.SourceYouTube, bare)
	require.NotNil(t, fe)
	assert.Equal(t, types.SourceYouTube, fe.Source)
	assert.Equal(t, KindAuthMissing, fe.Kind)
	require.NotNil(t, fe.Err)
	assert.Equal(t, "auth_missing", fe.Err.Error())
	assert.Nil(t, bare.Err, "caller's error is not mutated")
}

func TestFetchAll_FetchErrorWithoutCause(t *testing.T) {
	connectors := []Connector{
		&fakeConnector{id: types.SourceYouTube, err: &FetchError{Kind: KindAuthMissing}},
		&fakeConnector{id: types.SourceWikipedia, docs: []types.RawDocument{rawDoc(types.SourceWikipedia, "w")}},
	}
	outcomes := FetchAll(context.Background(), connectors, "q", 5, 0, nil)

	require.NotNil(t, outcomes[0].Err)
	assert.Equal(t, KindAuthMissing, outcomes[0].Err.Kind)
	assert.Equal(t, types.SourceYouTube, outcomes[0].Err.Source)
	require.NotNil(t, outcomes[0].Err.Err)
	assert.Len(t, outcomes[1].Documents, 1)
}
