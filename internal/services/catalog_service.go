package services

import (
	"context"
	"fmt"

	"easybuy/internal/domain"
	"easybuy/internal/events"
	"easybuy/internal/validate"
)

type CatalogService struct {
	Cats   CategoryStore
	Prods  ProductStore
	Events *events.Bus
}

func NewCatalogService(cats CategoryStore, prods ProductStore, bus *events.Bus) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Events: bus}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, caller domain.Caller, name string) (domain.Category, error) {
	if !caller.IsAdmin() {
		return domain.Category{}, domain.ErrForbidden
	}
	name, ok := validate.Name(name, 60)
	if !ok {
		return domain.Category{}, domain.Invalidf("category name is required (max 60 chars)")
	}
	return s.Cats.Insert(ctx, domain.Category{Name: name})
}

// ListAvailableByCategory returns the category's products that are neither
// booked nor paid, newest first.
func (s *CatalogService) ListAvailableByCategory(ctx context.Context, catID string) ([]domain.Product, error) {
	id, ok := validate.ID(catID)
	if !ok {
		return nil, domain.Invalidf("invalid category id")
	}
	if _, err := s.Cats.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Prods.ListAvailableByCategory(ctx, id)
}

func (s *CatalogService) ListAdvertised(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.ListAdvertised(ctx)
}

func (s *CatalogService) Search(ctx context.Context, q, catID string) ([]domain.Product, error) {
	if q != "" {
		var ok bool
		if q, ok = validate.Q(q); !ok {
			return nil, domain.Invalidf("invalid search query")
		}
	}
	if catID != "" {
		var ok bool
		if catID, ok = validate.ID(catID); !ok {
			return nil, domain.Invalidf("invalid category id")
		}
	}
	return s.Prods.Search(ctx, q, catID, 50)
}

type NewProduct struct {
	CategoryID    string       `json:"categoryId"`
	Name          string       `json:"productName"`
	Description   string       `json:"description"`
	Condition     string       `json:"condition"`
	Location      string       `json:"location"`
	Price         domain.Price `json:"price"`
	OriginalPrice domain.Price `json:"originalPrice"`
	YearsOfUse    int          `json:"yearsOfUse"`
	Image         string       `json:"image"`
	SellerName    string       `json:"sellerName"`
}

// CreateProduct lists a product for the caller; the seller is always the
// caller, whatever the body says.
func (s *CatalogService) CreateProduct(ctx context.Context, caller domain.Caller, in NewProduct) (domain.Product, error) {
	if caller.Role != domain.RoleSeller && !caller.IsAdmin() {
		return domain.Product{}, domain.ErrForbidden
	}
	name, ok := validate.Name(in.Name, 120)
	if !ok {
		return domain.Product{}, domain.Invalidf("productName is required (max 120 chars)")
	}
	catID, ok := validate.ID(in.CategoryID)
	if !ok {
		return domain.Product{}, domain.Invalidf("invalid categoryId")
	}
	if _, err := s.Cats.Get(ctx, catID); err != nil {
		return domain.Product{}, domain.Invalidf("unknown category %s", catID)
	}
	if !validate.Price(in.Price) || !validate.Price(in.OriginalPrice) {
		return domain.Product{}, domain.Invalidf("price must be a non-negative number")
	}
	if in.YearsOfUse < 0 || in.YearsOfUse > 100 {
		return domain.Product{}, domain.Invalidf("yearsOfUse out of range")
	}
	if len(in.Description) > 2000 || len(in.Image) > 500 || len(in.Location) > 120 || len(in.Condition) > 40 {
		return domain.Product{}, domain.Invalidf("field too long")
	}

	return s.Prods.Insert(ctx, domain.Product{
		SellerEmail:   caller.Email,
		SellerName:    in.SellerName,
		CategoryID:    catID,
		Name:          name,
		Description:   in.Description,
		Condition:     in.Condition,
		Location:      in.Location,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		YearsOfUse:    in.YearsOfUse,
		Image:         in.Image,
	})
}

func (s *CatalogService) ListBySeller(ctx context.Context, caller domain.Caller, email string) ([]domain.Product, error) {
	if email == "" {
		email = caller.Email
	}
	if !caller.Owns(email) {
		return nil, domain.ErrForbidden
	}
	return s.Prods.ListBySeller(ctx, email)
}

// ownedProduct loads id and checks the caller may change it.
func (s *CatalogService) ownedProduct(ctx context.Context, caller domain.Caller, id string) (domain.Product, error) {
	id, ok := validate.ID(id)
	if !ok {
		return domain.Product{}, domain.Invalidf("invalid product id")
	}
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !caller.Owns(p.SellerEmail) {
		return domain.Product{}, fmt.Errorf("%w: product %s belongs to another seller", domain.ErrForbidden, id)
	}
	return p, nil
}

// Advertise never creates a product: an unknown id is ErrNotFound.
func (s *CatalogService) Advertise(ctx context.Context, caller domain.Caller, id string) (domain.WriteResult, error) {
	p, err := s.ownedProduct(ctx, caller, id)
	if err != nil {
		return domain.WriteResult{}, err
	}
	n, err := s.Prods.Advertise(ctx, p.ID)
	if err != nil {
		return domain.WriteResult{}, err
	}
	_ = s.Events.PublishJSON(events.ProductAdvertised, events.ProductPayload{ProductID: p.ID, SellerEmail: p.SellerEmail})
	return domain.Modified(n), nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, caller domain.Caller, id string) (domain.WriteResult, error) {
	p, err := s.ownedProduct(ctx, caller, id)
	if err != nil {
		return domain.WriteResult{}, err
	}
	n, err := s.Prods.Delete(ctx, p.ID)
	if err != nil {
		return domain.WriteResult{}, err
	}
	return domain.Deleted(n), nil
}
