package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
	"github.com/lvfeida/baidu-chain-dog/pkg/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.MarketConfig{
		BaseURL:        srv.URL,
		ListPath:       "/data/market/queryPetsOnSale",
		CreatePath:     "/data/txn/create",
		PageSize:       10,
		SortType:       "AMOUNT_ASC",
		TimeoutSeconds: 2,
	})
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestList_ParsesPets(t *testing.T) {
	var got listRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/market/queryPetsOnSale", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, `{"errorNo":"00","errorMsg":"success","data":{"petsOnSale":[
			{"id":"1","petId":"p-1","amount":"50.00","rareDegree":1,"generation":0,"validCode":"vc1"},
			{"id":"2","petId":"p-2","amount":"abc","rareDegree":2,"generation":3,"validCode":"vc2"}
		],"totalCount":2,"hasData":true}}`)
	})

	page, err := c.List(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, 3, got.PageNo)
	assert.Equal(t, 10, got.PageSize)
	assert.Equal(t, "AMOUNT_ASC", got.QuerySortType)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, []domain.Listing{
		{ID: "p-1", Price: "50.00", RareDegree: 1, Generation: 0, ValidCode: "vc1"},
		{ID: "p-2", Price: "abc", RareDegree: 2, Generation: 3, ValidCode: "vc2"},
	}, page.Listings)
}

func TestList_MissingDataIsAbsentEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"errorNo":"00","errorMsg":"success"}`)
	})
	page, err := c.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestList_BusinessErrorIsFault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"errorNo":"08","errorMsg":"请求过于频繁"}`)
	})
	_, err := c.List(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "errorNo=08")
}

func TestList_HTTPErrorIsFault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.List(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}

func TestCreateOrder(t *testing.T) {
	var (
		got    createOrderRequest
		cookie string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/txn/create", r.URL.Path)
		cookie = r.Header.Get("Cookie")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.PetID == "sold" {
			writeJSON(w, `{"errorNo":"10002","errorMsg":"有人抢先下单啦"}`)
			return
		}
		writeJSON(w, `{"errorNo":"00","errorMsg":"success"}`)
	})
	acct := domain.Account{ID: "a1", Name: "alice", Cookie: "BDUSS=xyz"}

	res, err := c.CreateOrder(context.Background(), acct, "p-1", "50.00", "vc1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "BDUSS=xyz", cookie)
	assert.Equal(t, "p-1", got.PetID)
	assert.Equal(t, "50.00", got.Amount)
	assert.Equal(t, "vc1", got.ValidCode)

	res, err = c.CreateOrder(context.Background(), acct, "sold", "50.00", "vc1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "有人抢先下单啦", res.Message)
}

func TestDryRunPurchaser(t *testing.T) {
	res, err := DryRunPurchaser{}.CreateOrder(context.Background(), domain.Account{ID: "a1"}, "p-1", "1", "vc")
	require.NoError(t, err)
	assert.True(t, res.Success)
}
