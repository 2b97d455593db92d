package service

import (
	"cnpjapi/cmd/internal/contract"
	"cnpjapi/cmd/internal/domain/entity"
	"cnpjapi/cmd/internal/infrastructure/broker"
	"cnpjapi/cmd/internal/infrastructure/cache"
	"cnpjapi/cmd/internal/infrastructure/opencnpj"
	"cnpjapi/cmd/internal/utils/apierror"
	"cnpjapi/cmd/internal/utils/validators"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerMock struct {
	LookupFn func(ctx context.Context, cnpj string) (*opencnpj.Company, error)
	calls    int
}

func (m *providerMock) Lookup(ctx context.Context, cnpj string) (*opencnpj.Company, error) {
	m.calls++
	return m.LookupFn(ctx, cnpj)
}

type repoMock struct {
	UpsertFn func(ctx context.Context, c *entity.Company) (*entity.Company, error)
	SearchFn func(ctx context.Context, query string, page, pageSize int) ([]*entity.Company, int64, error)
}

func (m *repoMock) Upsert(ctx context.Context, c *entity.Company) (*entity.Company, error) {
	return m.UpsertFn(ctx, c)
}

func (m *repoMock) Search(ctx context.Context, query string, page, pageSize int) ([]*entity.Company, int64, error) {
	return m.SearchFn(ctx, query, page, pageSize)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*cache.Entry{}}
}

func (m *memoryCache) Get(_ context.Context, cnpj string) (*cache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[cnpj], nil
}

func (m *memoryCache) Set(_ context.Context, cnpj string, entry *cache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cnpj] = entry
	return nil
}

type pubMock struct {
	mu     sync.Mutex
	events []broker.Event
}

func (m *pubMock) PublishEvent(_ context.Context, ev broker.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

type archiverMock struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *archiverMock) ArchiveRaw(_ context.Context, cnpj string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[cnpj] = payload
	return "opencnpj/raw/" + cnpj + "/1.json", nil
}

func found(payload string) func(context.Context, string) (*opencnpj.Company, error) {
	return func(context.Context, string) (*opencnpj.Company, error) {
		var c opencnpj.Company
		if err := c.UnmarshalJSON([]byte(payload)); err != nil {
			return nil, err
		}
		c.NormalizedCNPJ = "11222333000181"
		return &c, nil
	}
}

func failing(err error) func(context.Context, string) (*opencnpj.Company, error) {
	return func(context.Context, string) (*opencnpj.Company, error) {
		return nil, err
	}
}

func echoUpsert(ctx context.Context, c *entity.Company) (*entity.Company, error) {
	saved := *c
	saved.ID = 1
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	return &saved, nil
}

func assertKind(t *testing.T, err error, kind apierror.Kind) {
	t.Helper()
	var apierr *apierror.APIError
	require.ErrorAs(t, err, &apierr)
	assert.Equal(t, kind, apierr.Kind)
}

func TestCompanyService_LookupCNPJ(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the provider payload", func(t *testing.T) {
		svc := NewCompanyService(&providerMock{LookupFn: found(fullPayload)}, &repoMock{}, validators.New())

		company, err := svc.LookupCNPJ(ctx, "11.222.333/0001-81")
		require.NoError(t, err)
		assert.Equal(t, "11222333000181", company.NormalizedCNPJ)
	})

	t.Run("provider 404 is not found", func(t *testing.T) {
		svc := NewCompanyService(&providerMock{LookupFn: failing(nil)}, &repoMock{}, validators.New())

		_, err := svc.LookupCNPJ(ctx, "11222333000181")
		assertKind(t, err, apierror.KindNotFound)
	})

	t.Run("rejects identifiers without digits or too long", func(t *testing.T) {
		provider := &providerMock{LookupFn: found(fullPayload)}
		svc := NewCompanyService(provider, &repoMock{}, validators.New())

		_, err := svc.LookupCNPJ(ctx, "abc")
		assertKind(t, err, apierror.KindValidation)
		_, err = svc.LookupCNPJ(ctx, "112223330001811")
		assertKind(t, err, apierror.KindValidation)
		assert.Zero(t, provider.calls)
	})

	errorCases := []struct {
		name string
		err  error
		kind apierror.Kind
	}{
		{"rate limited", opencnpj.ErrRateLimited, apierror.KindRateLimited},
		{"unavailable", errors.Join(opencnpj.ErrUpstreamUnavailable, errors.New("status 503")), apierror.KindUpstreamUnavailable},
		{"upstream", opencnpj.ErrUpstream, apierror.KindUpstream},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewCompanyService(&providerMock{LookupFn: failing(tc.err)}, &repoMock{}, validators.New())

			_, err := svc.LookupCNPJ(ctx, "11222333000181")
			assertKind(t, err, tc.kind)
		})
	}

	t.Run("serves repeated lookups from cache, negative results included", func(t *testing.T) {
		hit := &providerMock{LookupFn: found(fullPayload)}
		miss := &providerMock{LookupFn: failing(nil)}
		lookups := newMemoryCache()

		svc := NewCompanyService(hit, &repoMock{}, validators.New(), WithLookupCache(lookups))
		for i := 0; i < 3; i++ {
			company, err := svc.LookupCNPJ(ctx, "11222333000181")
			require.NoError(t, err)
			assert.Equal(t, "ACME INDUSTRIA E COMERCIO SA", company.RazaoSocial)
			assert.Equal(t, "11222333000181", company.NormalizedCNPJ)
		}
		assert.Equal(t, 1, hit.calls)

		svc = NewCompanyService(miss, &repoMock{}, validators.New(), WithLookupCache(lookups))
		for i := 0; i < 2; i++ {
			_, err := svc.LookupCNPJ(ctx, "44555666000299")
			assertKind(t, err, apierror.KindNotFound)
		}
		assert.Equal(t, 1, miss.calls)
	})
}

func TestCompanyService_SaveCompany(t *testing.T) {
	ctx := context.Background()

	t.Run("looks up, upserts and maps the row", func(t *testing.T) {
		var upserted *entity.Company
		repo := &repoMock{UpsertFn: func(ctx context.Context, c *entity.Company) (*entity.Company, error) {
			upserted = c
			return echoUpsert(ctx, c)
		}}
		svc := NewCompanyService(&providerMock{LookupFn: found(fullPayload)}, repo, validators.New())

		resp, err := svc.SaveCompany(ctx, &contract.CreateCompanyRequest{CNPJ: " 11.222.333/0001-81 "})
		require.NoError(t, err)

		assert.Equal(t, "11222333000181", upserted.CNPJ)
		assert.EqualValues(t, 1, resp.ID)
		assert.Equal(t, "ACME INDUSTRIA E COMERCIO SA", *resp.RazaoSocial)
		assert.Contains(t, string(resp.Qsa), `"nome_socio":"FULANO DE TAL"`)
	})

	t.Run("validation failures", func(t *testing.T) {
		provider := &providerMock{LookupFn: found(fullPayload)}
		svc := NewCompanyService(provider, &repoMock{}, validators.New())

		_, err := svc.SaveCompany(ctx, &contract.CreateCompanyRequest{CNPJ: "   "})
		assertKind(t, err, apierror.KindValidation)
		assert.Contains(t, err.Error(), "cnpj: this field is required")

		_, err = svc.SaveCompany(ctx, &contract.CreateCompanyRequest{CNPJ: "abc"})
		assertKind(t, err, apierror.KindValidation)
		assert.Zero(t, provider.calls)
	})

	t.Run("provider 404 is not found", func(t *testing.T) {
		svc := NewCompanyService(&providerMock{LookupFn: failing(nil)}, &repoMock{}, validators.New())

		_, err := svc.SaveCompany(ctx, &contract.CreateCompanyRequest{CNPJ: "11222333000181"})
		assertKind(t, err, apierror.KindNotFound)
	})

	t.Run("provider payload with a bad cnpj is a validation error", func(t *testing.T) {
		svc := NewCompanyService(&providerMock{LookupFn: found(`{"cnpj": "123"}`)}, &repoMock{}, validators.New())

		_, err := svc.SaveCompany(ctx, &contract.CreateCompanyRequest{CNPJ: "11222333000181"})
		assertKind(t, err, apierror.KindValidation)
	})

	t.Run("store failures are internal", func(t *testing.T) {
		repo := &repoMock{UpsertFn: func(context.Context, *entity.Company) (*entity.Company, error) {
			return nil, errors.New("connection refused")
		}}
		svc := NewCompanyService(&providerMock{LookupFn: found(fullPayload)}, repo, validators.New())

		_, err := svc.SaveCompany(ctx, &contract.CreateCompanyRequest{CNPJ: "11222333000181"})
		require.Error(t, err)
		var apierr *apierror.APIError
		assert.False(t, errors.As(err, &apierr))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("publishes and archives after saving", func(t *testing.T) {
		pub := &pubMock{}
		archive := &archiverMock{files: map[string][]byte{}}
		repo := &repoMock{UpsertFn: echoUpsert}
		svc := NewCompanyService(&providerMock{LookupFn: found(fullPayload)}, repo, validators.New(),
			WithEventPublisher(pub), WithRawArchiver(archive))

		_, err := svc.SaveCompany(ctx, &contract.CreateCompanyRequest{CNPJ: "11222333000181"})
		require.NoError(t, err)
		svc.Wait()

		require.Len(t, pub.events, 1)
		assert.Equal(t, broker.ActionCompanyUpserted, pub.events[0].Action)
		assert.Equal(t, "11222333000181", pub.events[0].CNPJ)
		assert.Equal(t, "ACME INDUSTRIA E COMERCIO SA", pub.events[0].RazaoSocial)

		require.Len(t, archive.files, 1)
		assert.Contains(t, string(archive.files["11222333000181"]), `"cnpj_normalizado":"11222333000181"`)
	})
}

func TestCompanyService_ListCompanies(t *testing.T) {
	ctx := context.Background()

	var gotQuery string
	var gotPage, gotSize int
	repo := &repoMock{SearchFn: func(_ context.Context, query string, page, pageSize int) ([]*entity.Company, int64, error) {
		gotQuery, gotPage, gotSize = query, page, pageSize
		name := "Acme SA"
		return []*entity.Company{{ID: 1, CNPJ: "11222333000181", RazaoSocial: &name}}, 21, nil
	}}
	svc := NewCompanyService(&providerMock{}, repo, validators.New())

	t.Run("applies defaults", func(t *testing.T) {
		page, err := svc.ListCompanies(ctx, &contract.ListCompaniesQuery{})
		require.NoError(t, err)

		assert.Equal(t, "", gotQuery)
		assert.Equal(t, 1, gotPage)
		assert.Equal(t, 20, gotSize)
		assert.EqualValues(t, 21, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Acme SA", *page.Data[0].RazaoSocial)
	})

	t.Run("passes search and paging through", func(t *testing.T) {
		_, err := svc.ListCompanies(ctx, &contract.ListCompaniesQuery{Search: "acme", Page: "2", PageSize: "100"})
		require.NoError(t, err)

		assert.Equal(t, "acme", gotQuery)
		assert.Equal(t, 2, gotPage)
		assert.Equal(t, 100, gotSize)
	})

	invalid := []struct {
		name  string
		query contract.ListCompaniesQuery
		field string
	}{
		{"page zero", contract.ListCompaniesQuery{Page: "0"}, "page"},
		{"page size zero", contract.ListCompaniesQuery{PageSize: "0"}, "pageSize"},
		{"page size above max", contract.ListCompaniesQuery{PageSize: "101"}, "pageSize"},
		{"negative page", contract.ListCompaniesQuery{Page: "-1"}, "page"},
		{"non numeric page size", contract.ListCompaniesQuery{PageSize: "ten"}, "pageSize"},
		{"decimal page", contract.ListCompaniesQuery{Page: "1.5"}, "page"},
		{"overflowing page", contract.ListCompaniesQuery{Page: "99999999999999999999999"}, "page"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.query
			_, err := svc.ListCompanies(ctx, &q)
			assertKind(t, err, apierror.KindValidation)

			var apierr *apierror.APIError
			require.ErrorAs(t, err, &apierr)
			assert.Contains(t, apierr.Details, tc.field+":")
		})
	}

	t.Run("store failures are internal", func(t *testing.T) {
		failingRepo := &repoMock{SearchFn: func(context.Context, string, int, int) ([]*entity.Company, int64, error) {
			return nil, 0, errors.New("timeout")
		}}
		svc := NewCompanyService(&providerMock{}, failingRepo, validators.New())

		_, err := svc.ListCompanies(ctx, &contract.ListCompaniesQuery{})
		assert.ErrorContains(t, err, "timeout")
	})
}
