package services

import (
	"context"
	"errors"
	"testing"

	"github.com/clearcart/api/internal/domain"
)

func newCatalogServiceForTest(t *testing.T, categories *stubCategoryRepo, products *stubProductRepo, inventory *stubInventoryRepo) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(CatalogServiceDeps{
		Categories: categories,
		Products:   products,
		Inventory:  inventory,
		UnitOfWork: stubUnitOfWork{},
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc
}

func TestCategoryPrefix(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"Electronics", "EL", false},
		{"home & garden", "HO", false},
		{" toys ", "TO", false},
		{"7 Wonders", "WO", false},
		{"X", "", true},
	}
	for _, tc := range tests {
		got, err := categoryPrefix(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("categoryPrefix(%q) expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("categoryPrefix(%q): %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("categoryPrefix(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCreateProductAssignsSequentialCode(t *testing.T) {
	categories := &stubCategoryRepo{
		findFn: func(_ context.Context, id uint) (domain.Category, error) {
			return domain.Category{ID: id, Name: "Electronics"}, nil
		},
	}
	var insertedProduct domain.Product
	products := &stubProductRepo{
		maxSequenceFn: func(_ context.Context, prefix string) (int, error) {
			if prefix != "EL" {
				t.Errorf("prefix = %q, want EL", prefix)
			}
			return 41, nil
		},
		insertFn: func(_ context.Context, p *domain.Product) error {
			insertedProduct = *p
			return nil
		},
	}
	var insertedStock domain.InventoryItem
	inventory := &stubInventoryRepo{
		upsertFn: func(_ context.Context, item *domain.InventoryItem) error {
			insertedStock = *item
			return nil
		},
	}

	svc := newCatalogServiceForTest(t, categories, products, inventory)
	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:         "Noise Cancelling Headphones",
		Price:        19999,
		CategoryID:   2,
		InitialStock: 25,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.ID != "EL00042" {
		t.Errorf("product code = %q, want EL00042", product.ID)
	}
	if insertedProduct.ID != "EL00042" {
		t.Errorf("inserted code = %q", insertedProduct.ID)
	}
	if insertedStock.ProductID != "EL00042" || insertedStock.Quantity != 25 {
		t.Errorf("stock = %+v", insertedStock)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newCatalogServiceForTest(t, &stubCategoryRepo{}, &stubProductRepo{}, &stubInventoryRepo{})

	tests := []struct {
		name  string
		input ProductInput
	}{
		{"missing name", ProductInput{Price: 100, CategoryID: 1}},
		{"zero price", ProductInput{Name: "x", CategoryID: 1}},
		{"negative stock", ProductInput{Name: "x", Price: 100, CategoryID: 1, InitialStock: -1}},
		{"missing category", ProductInput{Name: "x", Price: 100}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateProduct(context.Background(), tc.input); !errors.Is(err, ErrCatalogInvalidInput) {
				t.Fatalf("err = %v, want ErrCatalogInvalidInput", err)
			}
		})
	}
}

func TestDeleteCategoryWithProductsFails(t *testing.T) {
	categories := &stubCategoryRepo{}
	products := &stubProductRepo{
		listByCategoryFn: func(_ context.Context, categoryID uint) ([]domain.Product, error) {
			return []domain.Product{{ID: "EL00001"}}, nil
		},
	}
	svc := newCatalogServiceForTest(t, categories, products, &stubInventoryRepo{})

	if err := svc.DeleteCategory(context.Background(), 2); !errors.Is(err, ErrCatalogConflict) {
		t.Fatalf("err = %v, want ErrCatalogConflict", err)
	}
}
