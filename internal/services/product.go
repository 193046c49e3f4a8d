package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/allocation"
	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type ProductFabricInput struct {
	FabricID    uuid.UUID
	Consumption decimal.Decimal
}

type ProductColorInput struct {
	Color     string
	ColorCode string
	Quantity  int
}

type ProductInput struct {
	Reference            string
	Description          string
	RegisteredAt         *time.Time
	ExpectedProductionAt *time.Time
	BrandID              uuid.UUID
	DesignerID           uuid.UUID
	GroupID              uuid.UUID
	StatusID             uuid.UUID
	Notes                string
	Fabrics              []ProductFabricInput
	Colors               []ProductColorInput
}

type ProductService interface {
	Create(ctx context.Context, tx *gorm.DB, in ProductInput, userID uuid.UUID) (*types.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Product, error)
	GetByReference(ctx context.Context, reference string) (*types.Product, error)
	List(ctx context.Context, filter repos.ProductFilter) ([]*types.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput, userID uuid.UUID) (*types.Product, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	// Copy clones a product's catalog data (fabrics, colors) under a new
	// reference. Location rows are deliberately not copied: allocations for
	// the reprogrammed product start from scratch.
	Copy(ctx context.Context, id uuid.UUID, newReference string, userID uuid.UUID) (*types.Product, error)
	ListEvents(ctx context.Context, productID uuid.UUID) ([]*types.ProductEvent, error)
}

type productService struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
	eventRepo   repos.ProductEventRepo
}

func NewProductService(db *gorm.DB, baseLog *logger.Logger, productRepo repos.ProductRepo, eventRepo repos.ProductEventRepo) ProductService {
	return &productService{
		db:          db,
		log:         baseLog.With("service", "ProductService"),
		productRepo: productRepo,
		eventRepo:   eventRepo,
	}
}

func (s *productService) Create(ctx context.Context, tx *gorm.DB, in ProductInput, userID uuid.UUID) (*types.Product, error) {
	if in.Reference == "" || in.Description == "" {
		return nil, fmt.Errorf("reference and description required: %w", allocation.ErrInvalidInput)
	}
	if len(in.Fabrics) == 0 {
		return nil, fmt.Errorf("at least one fabric required: %w", allocation.ErrInvalidInput)
	}

	product := &types.Product{
		ID:                   uuid.New(),
		Reference:            in.Reference,
		Description:          in.Description,
		RegisteredAt:         in.RegisteredAt,
		ExpectedProductionAt: in.ExpectedProductionAt,
		BrandID:              in.BrandID,
		DesignerID:           in.DesignerID,
		GroupID:              in.GroupID,
		StatusID:             in.StatusID,
		Notes:                in.Notes,
	}

	run := func(tx *gorm.DB) error {
		if _, err := s.productRepo.Create(ctx, tx, []*types.Product{product}); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if err := s.replaceAssociations(ctx, tx, product.ID, in); err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, product.ID, userID, types.ProductEventCreated, map[string]any{
			"reference": product.Reference,
		})
	}

	var err error
	if tx != nil {
		err = run(tx)
	} else {
		err = s.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		s.log.Error("Create product failed", "reference", in.Reference, "error", err)
		return nil, err
	}
	s.log.Info("Created product", "product_id", product.ID, "reference", product.Reference)
	return product, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	product, err := s.productRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, allocation.ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) GetByReference(ctx context.Context, reference string) (*types.Product, error) {
	product, err := s.productRepo.GetByReference(ctx, nil, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %q: %w", reference, allocation.ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, filter repos.ProductFilter) ([]*types.Product, error) {
	return s.productRepo.List(ctx, nil, filter)
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductInput, userID uuid.UUID) (*types.Product, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	current.Reference = in.Reference
	current.Description = in.Description
	current.RegisteredAt = in.RegisteredAt
	current.ExpectedProductionAt = in.ExpectedProductionAt
	current.BrandID = in.BrandID
	current.DesignerID = in.DesignerID
	current.GroupID = in.GroupID
	current.StatusID = in.StatusID
	current.Notes = in.Notes

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.Update(ctx, tx, current); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if err := s.replaceAssociations(ctx, tx, id, in); err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, id, userID, types.ProductEventUpdated, map[string]any{
			"reference": in.Reference,
		})
	})
	if err != nil {
		s.log.Error("Update product failed", "product_id", id, "error", err)
		return nil, err
	}
	return current, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.SoftDeleteByID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return s.appendEvent(ctx, tx, id, userID, types.ProductEventDeleted, nil)
	})
	if err != nil {
		s.log.Error("Delete product failed", "product_id", id, "error", err)
	}
	return err
}

func (s *productService) Copy(ctx context.Context, id uuid.UUID, newReference string, userID uuid.UUID) (*types.Product, error) {
	if newReference == "" {
		return nil, fmt.Errorf("new reference required: %w", allocation.ErrInvalidInput)
	}
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in := ProductInput{
		Reference:            newReference,
		Description:          source.Description,
		ExpectedProductionAt: source.ExpectedProductionAt,
		BrandID:              source.BrandID,
		DesignerID:           source.DesignerID,
		GroupID:              source.GroupID,
		StatusID:             source.StatusID,
		Notes:                source.Notes,
	}
	for _, f := range source.Fabrics {
		in.Fabrics = append(in.Fabrics, ProductFabricInput{FabricID: f.FabricID, Consumption: f.Consumption})
	}
	for _, c := range source.Colors {
		in.Colors = append(in.Colors, ProductColorInput{Color: c.Color, ColorCode: c.ColorCode, Quantity: c.Quantity})
	}

	var copied *types.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		copied, err = s.Create(ctx, tx, in, userID)
		if err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, copied.ID, userID, types.ProductEventCopied, map[string]any{
			"source_product_id": source.ID,
			"source_reference":  source.Reference,
		})
	})
	if err != nil {
		s.log.Error("Copy product failed", "product_id", id, "error", err)
		return nil, err
	}
	s.log.Info("Copied product", "source_id", id, "new_id", copied.ID, "new_reference", newReference)
	return copied, nil
}

func (s *productService) ListEvents(ctx context.Context, productID uuid.UUID) ([]*types.ProductEvent, error) {
	return s.eventRepo.ListByProductID(ctx, nil, productID)
}

func (s *productService) replaceAssociations(ctx context.Context, tx *gorm.DB, productID uuid.UUID, in ProductInput) error {
	fabrics := make([]*types.ProductFabric, 0, len(in.Fabrics))
	for _, f := range in.Fabrics {
		fabrics = append(fabrics, &types.ProductFabric{
			ID:          uuid.New(),
			FabricID:    f.FabricID,
			Consumption: f.Consumption,
		})
	}
	if err := s.productRepo.ReplaceFabrics(ctx, tx, productID, fabrics); err != nil {
		return fmt.Errorf("replace fabrics: %w", err)
	}
	colors := make([]*types.ProductColor, 0, len(in.Colors))
	for _, c := range in.Colors {
		if c.Color == "" || c.Quantity <= 0 {
			continue
		}
		colors = append(colors, &types.ProductColor{
			ID:        uuid.New(),
			Color:     c.Color,
			ColorCode: c.ColorCode,
			Quantity:  c.Quantity,
		})
	}
	if err := s.productRepo.ReplaceColors(ctx, tx, productID, colors); err != nil {
		return fmt.Errorf("replace colors: %w", err)
	}
	return nil
}

func (s *productService) appendEvent(ctx context.Context, tx *gorm.DB, productID, userID uuid.UUID, action string, payload map[string]any) error {
	var raw datatypes.JSON
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode event payload: %w", err)
		}
		raw = datatypes.JSON(b)
	}
	return s.eventRepo.Append(ctx, tx, &types.ProductEvent{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Action:    action,
		Payload:   raw,
	})
}
