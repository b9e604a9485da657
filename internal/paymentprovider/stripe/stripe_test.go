package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subbers/internal/paymentprovider"
)

const subscriptionsPage = `{
  "object": "list",
  "url": "/v1/subscriptions",
  "has_more": true,
  "data": [
    {
      "id": "sub_1",
      "object": "subscription",
      "status": "active",
      "start_date": 1704067200,
      "trial_end": null,
      "customer": {"id": "cus_1", "object": "customer", "email": "fan@example.com", "name": "Fan One", "phone": null},
      "discounts": [{"id": "di_1", "object": "discount", "coupon": {"id": "TWENTY", "object": "coupon", "percent_off": 20}}],
      "items": {
        "object": "list",
        "data": [
          {
            "id": "si_1",
            "object": "subscription_item",
            "current_period_end": 1706745600,
            "price": {
              "id": "price_1",
              "object": "price",
              "nickname": "Monthly",
              "unit_amount": 1999,
              "currency": "usd",
              "recurring": {"interval": "month", "interval_count": 1},
              "product": "prod_1"
            }
          }
        ]
      }
    },
    {
      "id": "sub_2",
      "object": "subscription",
      "status": "active",
      "start_date": 1704067200,
      "customer": {"id": "cus_2", "object": "customer", "email": "two@example.com"},
      "items": {
        "object": "list",
        "data": [
          {
            "id": "si_2",
            "object": "subscription_item",
            "price": {"id": "price_1", "object": "price", "unit_amount": 1999, "currency": "usd", "product": "prod_1"}
          }
        ]
      }
    }
  ]
}`

const liveClassesProduct = `{"id": "prod_1", "object": "product", "name": "Live Classes"}`

// stripeBackend отвечает на список подписок и запросы продуктов.
func stripeBackend(t *testing.T, subscriptions string, products *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/subscriptions":
			_, _ = w.Write([]byte(subscriptions))
		case r.URL.Path == "/v1/products/prod_1":
			products.Add(1)
			_, _ = w.Write([]byte(liveClassesProduct))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such product"}}`))
		}
	}))
}

func TestFetcher_FetchPage(t *testing.T) {
	var gotAuth, gotStatus, gotLimit, gotCursor string
	var products atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/products/prod_1" {
			products.Add(1)
			_, _ = w.Write([]byte(liveClassesProduct))
			return
		}
		assert.Equal(t, "/v1/subscriptions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotStatus = r.URL.Query().Get("status")
		gotLimit = r.URL.Query().Get("limit")
		gotCursor = r.URL.Query().Get("starting_after")
		_, _ = w.Write([]byte(subscriptionsPage))
	}))
	defer srv.Close()

	f := NewFactory(WithBackendURL(srv.URL)).ForCredential("sk_test_user")
	page, err := f.FetchPage(context.Background(), paymentprovider.PageRequest{
		Limit:         100,
		StartingAfter: "sub_0",
		ActiveOnly:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test_user", gotAuth)
	assert.Equal(t, "active", gotStatus)
	assert.Equal(t, "100", gotLimit)
	assert.Equal(t, "sub_0", gotCursor)

	assert.True(t, page.HasMore)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "Live Classes", page.Records[1].ProductName)
	assert.Equal(t, int32(1), products.Load(), "product fetched once per fetcher")
	rec := page.Records[0]
	assert.Equal(t, "sub_1", rec.ID)
	assert.Equal(t, "cus_1", rec.CustomerID)
	assert.Equal(t, "fan@example.com", rec.Email)
	assert.Equal(t, "Fan One", rec.Name)
	assert.Empty(t, rec.Phone)
	assert.Equal(t, "active", rec.Status)
	assert.Equal(t, "Monthly", rec.PlanName)
	assert.Equal(t, "Live Classes", rec.ProductName)
	assert.Equal(t, int64(1999), rec.AmountMinor)
	assert.Equal(t, "usd", rec.Currency)
	assert.Equal(t, "month", rec.Interval)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rec.StartDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), rec.CurrentPeriodEnd)
	assert.Nil(t, rec.TrialEnd)
	require.NotNil(t, rec.Discount)
	assert.Equal(t, 20.0, rec.Discount.PercentOff)
}

func TestFetcher_FetchPage_AllStatuses(t *testing.T) {
	var gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","url":"/v1/subscriptions","has_more":false,"data":[]}`))
	}))
	defer srv.Close()

	page, err := NewFactory(WithBackendURL(srv.URL)).ForCredential("sk_test").
		FetchPage(context.Background(), paymentprovider.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "all", gotStatus)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.Records)
}

func TestFetcher_FetchPage_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`))
	}))
	defer srv.Close()

	_, err := NewFactory(WithBackendURL(srv.URL)).ForCredential("sk_bad").
		FetchPage(context.Background(), paymentprovider.PageRequest{Limit: 100, ActiveOnly: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, paymentprovider.ErrUpstream)
}

func TestFetcher_FetchPage_ExpandDepth(t *testing.T) {
	var expand []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, values := range r.URL.Query() {
			if strings.HasPrefix(key, "expand") {
				expand = append(expand, values...)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","url":"/v1/subscriptions","has_more":false,"data":[]}`))
	}))
	defer srv.Close()

	_, err := NewFactory(WithBackendURL(srv.URL)).ForCredential("sk_test").
		FetchPage(context.Background(), paymentprovider.PageRequest{Limit: 100, ActiveOnly: true})
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"data.customer", "data.discounts", "data.items.data.price"}, expand)
	for _, e := range expand {
		assert.LessOrEqual(t, len(strings.Split(e, ".")), MaxExpandDepth, "expand %q", e)
	}
}

func TestFetcher_FetchPage_DeletedProduct(t *testing.T) {
	page := strings.ReplaceAll(subscriptionsPage, `"prod_1"`, `"prod_gone"`)
	var products atomic.Int32
	srv := stripeBackend(t, page, &products)
	defer srv.Close()

	got, err := NewFactory(WithBackendURL(srv.URL)).ForCredential("sk_test").
		FetchPage(context.Background(), paymentprovider.PageRequest{Limit: 100, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.Empty(t, got.Records[0].ProductName)
	assert.Equal(t, int32(0), products.Load())
}

func TestFetcher_FetchPage_ProductLookupFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/subscriptions" {
			_, _ = w.Write([]byte(subscriptionsPage))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	_, err := NewFactory(WithBackendURL(srv.URL)).ForCredential("sk_test").
		FetchPage(context.Background(), paymentprovider.PageRequest{Limit: 100, ActiveOnly: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, paymentprovider.ErrUpstream)
}
