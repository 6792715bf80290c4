package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
)

func TestClient_FetchRate(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		switch r.URL.Query().Get("to") {
		case "USD":
			_, _ = w.Write([]byte(`{"amount":1.0,"base":"JPY","date":"2024-03-01","rates":{"USD":0.006687}}`))
		case "EUR":
			_, _ = w.Write([]byte(`{"amount":1.0,"base":"JPY","date":"2024-03-01","rates":{}}`))
		case "GBP":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	rate, ok, err := c.FetchRate(ctx, valueobject.USD, day)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.0067", rate.String())
	assert.Equal(t, "/2024-03-01", gotPath)
	assert.Equal(t, "from=JPY&to=USD", gotQuery)

	_, _, err = c.FetchRate(ctx, valueobject.USD, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "/latest", gotPath)

	_, ok, err = c.FetchRate(ctx, valueobject.EUR, day)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.FetchRate(ctx, valueobject.GBP, day)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.FetchRate(ctx, valueobject.CurrencyCode("CNY"), day)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestClient_JPYNeverCallsOut(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", time.Millisecond)
	rate, ok, err := c.FetchRate(context.Background(), valueobject.JPY, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}
