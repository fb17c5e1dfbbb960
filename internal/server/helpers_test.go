package server

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"

	"flashlink/internal/data"
	"flashlink/internal/domain"
	"flashlink/internal/metrics"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T, m *metrics.Metrics) domain.LinkRepository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := data.OpenData(context.Background(), data.DriverSQLite,
		fmt.Sprintf("file:srv_%s?mode=memory&cache=shared&_fk=1", name))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return data.WrapWithCache(data.NewLinkRepo(d, log.DefaultLogger), data.NewLocalLinkCache(), m, log.DefaultLogger)
}

func seedLink(t *testing.T, repo domain.LinkRepository, id int64, expiry *time.Time) *domain.ShortLink {
	t.Helper()
	longURL, err := domain.NewLongURL(fmt.Sprintf("https://example.com/%d", id))
	require.NoError(t, err)
	link, err := domain.NewShortLink(id, longURL, testNow.Add(-time.Hour), nil, 0, "")
	require.NoError(t, err)
	link.ExpiryAt = expiry
	require.NoError(t, repo.Save(context.Background(), link))
	return link
}
