package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	refs        catalog.ReferenceChecker
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, refs catalog.ReferenceChecker, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		refs:        refs,
		logger:      logger,
	}
}

// Create creates a new product. The (name, variety, brand) tuple must be unique.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.Variety, req.Brand, req.Size)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueKey(ctx, product.Key(), uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.DisplayName()),
	)
	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves a page of products
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter := toDomainFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir)
	domainFilter.Search = strings.TrimSpace(filter.Search)
	if filter.OrderBy == "" {
		domainFilter.OrderBy = "name"
		domainFilter.OrderDir = "asc"
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// Search finds products whose name, variety or brand contain query
func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]ProductResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ProductResponse{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	filter := shared.DefaultFilter()
	filter.Search = query
	filter.PageSize = limit
	filter.OrderBy = "name"
	filter.OrderDir = "asc"

	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// Update replaces a product's descriptive fields
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldKey := product.Key()
	if err := product.Update(req.Name, req.Variety, req.Brand, req.Size); err != nil {
		return nil, err
	}
	if product.Key() != oldKey {
		if err := s.ensureUniqueKey(ctx, product.Key(), product.ID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a product that nothing references
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if s.refs != nil {
		referenced, err := s.refs.ProductReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return shared.NewDomainError(shared.CodeInUse, "Product has units, inventory, purchases or sales")
		}
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *ProductService) ensureUniqueKey(ctx context.Context, key catalog.ProductKey, self uuid.UUID) error {
	existing, err := s.productRepo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == self {
		return nil
	}
	return shared.NewDomainError(shared.CodeAlreadyExists, "A product with this name, variety and brand already exists")
}

func toDomainFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	if orderBy != "" {
		filter.OrderBy = orderBy
	}
	if orderDir != "" {
		filter.OrderDir = orderDir
	}
	return filter
}
