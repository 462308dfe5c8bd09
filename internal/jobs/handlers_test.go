package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

type mockSignalWriter struct {
	signals []domain.Signal
}

func (m *mockSignalWriter) InsertSignal(_ context.Context, s *domain.Signal) error {
	m.signals = append(m.signals, *s)

	return nil
}

type mockEntityWriter struct {
	entities []domain.Entity
	aliases  []domain.AliasEntry
}

func (m *mockEntityWriter) UpsertEntity(_ context.Context, e *domain.Entity) (int64, error) {
	m.entities = append(m.entities, *e)

	return int64(len(m.entities)), nil
}

func (m *mockEntityWriter) UpsertAlias(_ context.Context, a *domain.AliasEntry) error {
	m.aliases = append(m.aliases, *a)

	return nil
}

type mockFeedPuller struct {
	urls []string
	err  error
}

func (m *mockFeedPuller) PullFeed(_ context.Context, feedURL string) (int, error) {
	m.urls = append(m.urls, feedURL)

	return 1, m.err
}

func TestRefreshReviewsHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total": 4200, "positive_ratio": 0.91}`))
	}))
	defer srv.Close()

	writer := &mockSignalWriter{}
	handler := RefreshReviewsHandler(newTestFetcher(), writer)

	err := handler(context.Background(), []byte(`{"entity_id": 7, "url": "`+srv.URL+`"}`))

	require.NoError(t, err)
	require.Len(t, writer.signals, 2)

	assert.Equal(t, domain.SignalReviewsTotal, writer.signals[0].SignalType)
	assert.Equal(t, float64(4200), *writer.signals[0].ValueNumeric)
	assert.Equal(t, int64(7), writer.signals[0].EntityID)

	assert.Equal(t, domain.SignalPositiveRatio, writer.signals[1].SignalType)
	assert.Equal(t, 0.91, *writer.signals[1].ValueNumeric)
}

func TestRefreshReviewsHandler_PartialSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total": 100}`))
	}))
	defer srv.Close()

	writer := &mockSignalWriter{}
	handler := RefreshReviewsHandler(newTestFetcher(), writer)

	err := handler(context.Background(), []byte(`{"entity_id": 7, "url": "`+srv.URL+`"}`))

	require.NoError(t, err)
	require.Len(t, writer.signals, 1)
	assert.Equal(t, domain.SignalReviewsTotal, writer.signals[0].SignalType)
}

func TestRefreshReviewsHandler_MalformedPayload(t *testing.T) {
	handler := RefreshReviewsHandler(newTestFetcher(), &mockSignalWriter{})

	for _, payload := range []string{`not json`, `{}`, `{"entity_id": 7}`} {
		err := handler(context.Background(), []byte(payload))

		assert.ErrorIs(t, err, ErrMalformedPayload, payload)
	}
}

func TestRefreshEntityHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Hollow Depths", "release_date": "2026-03-14"}`))
	}))
	defer srv.Close()

	writer := &mockEntityWriter{}
	handler := RefreshEntityHandler(newTestFetcher(), writer)

	err := handler(context.Background(), []byte(`{"external_ref": "hd-1", "url": "`+srv.URL+`"}`))

	require.NoError(t, err)
	require.Len(t, writer.entities, 1)

	e := writer.entities[0]
	assert.Equal(t, "Hollow Depths", e.Name)
	assert.Equal(t, "hd-1", e.ExternalRef)
	assert.True(t, e.IsActive)
	require.NotNil(t, e.ReleaseDate)
	assert.Equal(t, 2026, e.ReleaseDate.Year())

	require.Len(t, writer.aliases, 1)
	assert.Equal(t, "Hollow Depths", writer.aliases[0].Alias)
	assert.Equal(t, domain.AliasOfficial, writer.aliases[0].AliasType)
	assert.Equal(t, int64(1), writer.aliases[0].EntityID)
}

func TestRefreshEntityHandler_NamelessFacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"release_date": "2026-03-14"}`))
	}))
	defer srv.Close()

	writer := &mockEntityWriter{}
	handler := RefreshEntityHandler(newTestFetcher(), writer)

	err := handler(context.Background(), []byte(`{"external_ref": "hd-1", "url": "`+srv.URL+`"}`))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedPayload, "a bad upstream response is retryable")
	assert.Empty(t, writer.entities)
}

func TestFetchFeedHandler(t *testing.T) {
	puller := &mockFeedPuller{}
	handler := FetchFeedHandler(puller)

	err := handler(context.Background(), []byte(`{"feed_url": "https://example.com/feed.xml"}`))

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/feed.xml"}, puller.urls)
}

func TestFetchFeedHandler_PullFailurePropagates(t *testing.T) {
	puller := &mockFeedPuller{err: errors.New("feed unreachable")}
	handler := FetchFeedHandler(puller)

	err := handler(context.Background(), []byte(`{"feed_url": "https://example.com/feed.xml"}`))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedPayload)
}

func TestFetchFeedHandler_MalformedPayload(t *testing.T) {
	handler := FetchFeedHandler(&mockFeedPuller{})

	err := handler(context.Background(), []byte(`{}`))

	assert.ErrorIs(t, err, ErrMalformedPayload)
}
