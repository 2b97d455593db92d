package service

import (
	"cnpjapi/cmd/internal/contract"
	"cnpjapi/cmd/internal/domain/entity"
	"cnpjapi/cmd/internal/infrastructure/broker"
	"cnpjapi/cmd/internal/infrastructure/cache"
	"cnpjapi/cmd/internal/infrastructure/opencnpj"
	"cnpjapi/cmd/internal/utils"
	"cnpjapi/cmd/internal/utils/apierror"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

const sideEffectTimeout = 10 * time.Second

type CompanyRepository interface {
	Upsert(ctx context.Context, company *entity.Company) (*entity.Company, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*entity.Company, int64, error)
}

type CNPJProvider interface {
	Lookup(ctx context.Context, cnpj string) (*opencnpj.Company, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, ev broker.Event) error
}

type RawArchiver interface {
	ArchiveRaw(ctx context.Context, cnpj string, payload []byte) (string, error)
}

type CompanyService struct {
	Provider    CNPJProvider
	CompanyRepo CompanyRepository
	Validate    *validator.Validate

	// Optional collaborators, nil when not configured.
	Cache     cache.LookupCache
	Publisher EventPublisher
	Archiver  RawArchiver

	pending sync.WaitGroup
}

type CompanyServiceOption func(*CompanyService)

func WithLookupCache(c cache.LookupCache) CompanyServiceOption {
	return func(s *CompanyService) {
		s.Cache = c
	}
}

func WithEventPublisher(p EventPublisher) CompanyServiceOption {
	return func(s *CompanyService) {
		s.Publisher = p
	}
}

func WithRawArchiver(a RawArchiver) CompanyServiceOption {
	return func(s *CompanyService) {
		s.Archiver = a
	}
}

func NewCompanyService(
	provider CNPJProvider,
	companyRepo CompanyRepository,
	validate *validator.Validate,
	opts ...CompanyServiceOption,
) *CompanyService {
	s := &CompanyService{
		Provider:    provider,
		CompanyRepo: companyRepo,
		Validate:    validate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LookupCNPJ returns the provider payload for a CNPJ, masked or not.
// Only this read path goes through the lookup cache.
func (s *CompanyService) LookupCNPJ(ctx context.Context, cnpj string) (*opencnpj.Company, error) {
	digits := utils.DigitsOnly(cnpj)
	if digits == "" || len(digits) > utils.CNPJLength {
		return nil, apierror.InvalidCNPJParamError
	}
	key := utils.PadCNPJ(digits)

	if company, found, ok := s.fromCache(ctx, key); ok {
		if !found {
			return nil, apierror.CNPJNotFoundError
		}
		return company, nil
	}

	company, err := s.Provider.Lookup(ctx, cnpj)
	if err != nil {
		return nil, mapLookupError(cnpj, err)
	}

	s.toCache(ctx, key, company)
	if company == nil {
		return nil, apierror.CNPJNotFoundError
	}
	return company, nil
}

// SaveCompany looks the CNPJ up on the provider and upserts the result.
// The lookup always bypasses the cache, a save must persist fresh data.
func (s *CompanyService) SaveCompany(ctx context.Context, req *contract.CreateCompanyRequest) (*contract.CompanyResponse, error) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, validationError(valerr)
	}

	log.Infof("saving company with cnpj %s", req.CNPJ)

	company, err := s.Provider.Lookup(ctx, req.CNPJ)
	if err != nil {
		return nil, mapLookupError(req.CNPJ, err)
	}
	if company == nil {
		return nil, apierror.CNPJNotFoundError
	}
	s.toCache(ctx, utils.PadCNPJ(req.CNPJ), company)

	row, err := toCompanyRow(company)
	if errors.Is(err, utils.ErrInvalidCNPJ) {
		return nil, apierror.InvalidCNPJError.WithDetails("provider returned cnpj %q", company.CNPJ)
	}
	if err != nil {
		return nil, fmt.Errorf("mapping company %s: %w", req.CNPJ, err)
	}

	saved, err := s.CompanyRepo.Upsert(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("upserting company %s: %w", row.CNPJ, err)
	}

	log.Infof("company %s saved with id %d", saved.CNPJ, saved.ID)
	s.afterSave(saved, row.Raw)

	return toCompanyResp(saved), nil
}

func (s *CompanyService) ListCompanies(ctx context.Context, query *contract.ListCompaniesQuery) (*contract.CompanyPageResponse, error) {
	utils.Sanitize(query)
	if valerr := s.Validate.Struct(query); valerr != nil {
		return nil, validationError(valerr)
	}

	req := &contract.ListCompaniesRequest{
		Search:   query.Search,
		Page:     contract.DefaultPage,
		PageSize: contract.DefaultPageSize,
	}

	var err error
	if query.Page != "" {
		if req.Page, err = strconv.Atoi(query.Page); err != nil {
			return nil, apierror.InvalidDataError.WithDetails("page: must be a positive integer")
		}
	}
	if query.PageSize != "" {
		if req.PageSize, err = strconv.Atoi(query.PageSize); err != nil {
			return nil, apierror.InvalidDataError.WithDetails("pageSize: must be a positive integer")
		}
	}

	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, validationError(valerr)
	}

	log.Debugf("listing companies: search=%q page=%d pageSize=%d", req.Search, req.Page, req.PageSize)

	rows, total, err := s.CompanyRepo.Search(ctx, req.Search, req.Page, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("searching companies: %w", err)
	}

	return &contract.CompanyPageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Data:     toCompaniesResp(rows),
	}, nil
}

// Wait blocks until every background side effect of SaveCompany finished.
func (s *CompanyService) Wait() {
	s.pending.Wait()
}

// afterSave publishes the upsert event and archives the raw payload. Both
// run detached from the request and never fail it.
func (s *CompanyService) afterSave(saved *entity.Company, raw []byte) {
	if s.Publisher == nil && s.Archiver == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if s.Publisher != nil {
			ev := broker.Event{
				Action:    broker.ActionCompanyUpserted,
				CompanyID: saved.ID,
				CNPJ:      saved.CNPJ,
				Timestamp: saved.UpdatedAt,
			}
			if saved.RazaoSocial != nil {
				ev.RazaoSocial = *saved.RazaoSocial
			}
			if err := s.Publisher.PublishEvent(ctx, ev); err != nil {
				log.Errorf("failed to publish upsert event for company %s: %v", saved.CNPJ, err)
			}
		}

		if s.Archiver != nil {
			key, err := s.Archiver.ArchiveRaw(ctx, saved.CNPJ, raw)
			if err != nil {
				log.Errorf("failed to archive raw payload for company %s: %v", saved.CNPJ, err)
				return
			}
			log.Debugf("raw payload for company %s archived at %s", saved.CNPJ, key)
		}
	}()
}

// fromCache reports ok=false on a miss or when the cache is unusable.
func (s *CompanyService) fromCache(ctx context.Context, key string) (company *opencnpj.Company, found, ok bool) {
	if s.Cache == nil {
		return nil, false, false
	}

	entry, err := s.Cache.Get(ctx, key)
	if err != nil {
		log.Warnf("lookup cache read failed for %s: %v", key, err)
		return nil, false, false
	}
	if entry == nil {
		return nil, false, false
	}
	if !entry.Found {
		return nil, false, true
	}

	var cached opencnpj.Company
	if err = json.Unmarshal(entry.Payload, &cached); err != nil {
		log.Warnf("discarding unreadable lookup cache entry for %s: %v", key, err)
		return nil, false, false
	}
	return &cached, true, true
}

// toCache stores a provider answer, nil meaning the provider returned 404.
func (s *CompanyService) toCache(ctx context.Context, key string, company *opencnpj.Company) {
	if s.Cache == nil {
		return
	}

	entry := &cache.Entry{Found: company != nil}
	if company != nil {
		payload, err := json.Marshal(company)
		if err != nil {
			log.Warnf("failed to encode lookup for cache %s: %v", key, err)
			return
		}
		entry.Payload = payload
	}

	if err := s.Cache.Set(ctx, key, entry); err != nil {
		// The lookup itself succeeded, only the cache write failed
		log.Warnf("failed to cache lookup for %s: %v", key, err)
	}
}

// validationError avoids returning a typed nil when err is not a
// validator.ValidationErrors.
func validationError(err error) error {
	if apierr := apierror.FromValidationError(err); apierr != nil {
		return apierr
	}
	return fmt.Errorf("validating request: %w", err)
}

func mapLookupError(cnpj string, err error) error {
	log.Warnf("opencnpj lookup for %s failed: %v", cnpj, err)

	switch {
	case errors.Is(err, opencnpj.ErrRateLimited):
		return apierror.RateLimitedError
	case errors.Is(err, opencnpj.ErrUpstreamUnavailable):
		return apierror.UpstreamUnavailableError
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("lookup for %s canceled: %w", cnpj, err)
	default:
		return apierror.UpstreamError
	}
}
