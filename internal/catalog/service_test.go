package catalog_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/minishop/backend-minishop/internal/cart"
	"github.com/minishop/backend-minishop/internal/catalog"
	"github.com/minishop/backend-minishop/internal/common"
)

type fakeRepo struct {
	products  []catalog.Product
	listCalls int
	getCalls  int
}

func (f *fakeRepo) ListProducts(_ context.Context, params catalog.ListParams) ([]catalog.Product, int64, error) {
	f.listCalls++
	var matched []catalog.Product
	for _, p := range f.products {
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		if params.InStock != nil && p.InStock != *params.InStock {
			continue
		}
		matched = append(matched, p)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeRepo) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	f.getCalls++
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (f *fakeRepo) ListCategories(context.Context) ([]string, error) {
	return []string{"filters", "oils"}, nil
}

func (f *fakeRepo) ListBrands(context.Context) ([]string, error) {
	return []string{"Bosch", "Mann"}, nil
}

func seedProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", Name: "Oil Filter", Price: 1000, Category: "filters", Brand: "Mann", InStock: true},
		{ID: "p2", Name: "Engine Oil", Price: 500, Category: "oils", Brand: "Bosch", InStock: true},
		{ID: "p3", Name: "Spark Plug", Price: 300, Category: "ignition", Brand: "Bosch", InStock: false},
	}
}

func newService(t *testing.T, repo catalog.Repo, cache *catalog.Cache) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{Repo: repo, Cache: cache, DefaultLimit: 20, MaxLimit: 100})
	require.NoError(t, err)
	return svc
}

func newCache(t *testing.T) *catalog.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return catalog.NewCache(client, time.Minute)
}

func TestParseListParamsDefaults(t *testing.T) {
	svc := newService(t, &fakeRepo{}, nil)

	params, err := svc.ParseListParams(url.Values{})
	require.NoError(t, err)
	require.Equal(t, 1, params.Page)
	require.Equal(t, 20, params.Limit)
	require.Nil(t, params.InStock)
}

func TestParseListParamsClampsLimit(t *testing.T) {
	svc := newService(t, &fakeRepo{}, nil)

	params, err := svc.ParseListParams(url.Values{"limit": {"500"}})
	require.NoError(t, err)
	require.Equal(t, 100, params.Limit)
}

func TestParseListParamsRejectsBadPage(t *testing.T) {
	svc := newService(t, &fakeRepo{}, nil)

	_, err := svc.ParseListParams(url.Values{"page": {"zero"}})
	require.Error(t, err)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestParseListParamsNormalizesSort(t *testing.T) {
	svc := newService(t, &fakeRepo{}, nil)

	params, err := svc.ParseListParams(url.Values{"sort": {"PRICE:ASC"}})
	require.NoError(t, err)
	require.Equal(t, "price:asc", params.Sort)

	params, err = svc.ParseListParams(url.Values{"sort": {"drop table"}})
	require.NoError(t, err)
	require.Empty(t, params.Sort)
}

func TestListProductsFilters(t *testing.T) {
	repo := &fakeRepo{products: seedProducts()}
	svc := newService(t, repo, nil)

	inStock := true
	result, err := svc.ListProducts(context.Background(), catalog.ListParams{Page: 1, Limit: 20, InStock: &inStock})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Equal(t, int64(2), result.Total)
}

func TestListProductsCachesHomePage(t *testing.T) {
	repo := &fakeRepo{products: seedProducts()}
	svc := newService(t, repo, newCache(t))
	params := catalog.ListParams{Page: 1, Limit: 20}

	first, err := svc.ListProducts(context.Background(), params)
	require.NoError(t, err)
	second, err := svc.ListProducts(context.Background(), params)
	require.NoError(t, err)

	require.Equal(t, first.Items, second.Items)
	require.Equal(t, 1, repo.listCalls)
}

func TestGetProductNotFound(t *testing.T) {
	svc := newService(t, &fakeRepo{}, nil)

	_, err := svc.GetProduct(context.Background(), "ghost")
	require.Error(t, err)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetProductCachesDetail(t *testing.T) {
	repo := &fakeRepo{products: seedProducts()}
	svc := newService(t, repo, newCache(t))

	first, err := svc.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	second, err := svc.GetProduct(context.Background(), "p1")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, repo.getCalls)
}

func TestCartLookupConvertsProduct(t *testing.T) {
	svc := newService(t, &fakeRepo{products: seedProducts()}, nil)
	lookup := catalog.CartLookup{Service: svc}

	p, err := lookup.Product(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, cart.Product{ID: "p1", Name: "Oil Filter", Price: 1000, Category: "filters", Brand: "Mann", InStock: true}, p)
}

func TestCartLookupMapsNotFound(t *testing.T) {
	svc := newService(t, &fakeRepo{}, nil)
	lookup := catalog.CartLookup{Service: svc}

	_, err := lookup.Product(context.Background(), "ghost")
	require.ErrorIs(t, err, cart.ErrProductNotFound)
}

func TestListCategoriesAndBrands(t *testing.T) {
	svc := newService(t, &fakeRepo{}, nil)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"filters", "oils"}, categories)

	brands, err := svc.ListBrands(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Bosch", "Mann"}, brands)
}
