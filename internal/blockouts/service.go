package blockouts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/pkg/db"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

const defaultBlockedBy = "owner"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productReader interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
}

// CreateInput blocks a single date. AllProducts defaults to true; when false
// Products must list at least one active product slug.
type CreateInput struct {
	Date        types.Date
	Reason      enums.BlockReason
	Description *string
	AllProducts *bool
	Products    []string
}

// BulkCreateInput blocks several dates with the same scope. The batch is
// all-or-nothing.
type BulkCreateInput struct {
	Dates       []types.Date
	Reason      enums.BlockReason
	Description *string
	AllProducts *bool
	Products    []string
}

// UpdateInput edits a blocked date. Nil fields are left untouched.
type UpdateInput struct {
	Reason      *enums.BlockReason
	Description *string
	AllProducts *bool
	Products    *[]string
	IsActive    *bool
}

// Service exposes blocked date administration plus the lookups the
// availability and admission paths rely on.
type Service interface {
	Create(ctx context.Context, input CreateInput, actor *outbox.ActorRef) (*models.BlockedDate, error)
	BulkCreate(ctx context.Context, input BulkCreateInput, actor *outbox.ActorRef) ([]models.BlockedDate, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.BlockedDate, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor *outbox.ActorRef) (*models.BlockedDate, error)
	Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error
	Stats(ctx context.Context, start, end *types.Date) (*Stats, error)
	ListActiveInRange(ctx context.Context, start, end types.Date) ([]models.BlockedDate, error)
	IsBlocked(ctx context.Context, date types.Date, slug string) (bool, error)
}

type service struct {
	repo     Repository
	products productReader
	tx       txRunner
	outbox   outbox.Emitter
	now      func() time.Time
}

// NewService builds the blockout service.
func NewService(repo Repository, products productReader, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("blockout repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:     repo,
		products: products,
		tx:       tx,
		outbox:   emitter,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput, actor *outbox.ActorRef) (*models.BlockedDate, error) {
	created, err := s.BulkCreate(ctx, BulkCreateInput{
		Dates:       []types.Date{input.Date},
		Reason:      input.Reason,
		Description: input.Description,
		AllProducts: input.AllProducts,
		Products:    input.Products,
	}, actor)
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

func (s *service) BulkCreate(ctx context.Context, input BulkCreateInput, actor *outbox.ActorRef) ([]models.BlockedDate, error) {
	if len(input.Dates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one date is required")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reason value").
			WithDetails(map[string]any{"allowed": enums.BlockReasons()})
	}
	seen := make(map[string]struct{}, len(input.Dates))
	var duplicates []string
	for _, d := range input.Dates {
		if d.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
		}
		key := d.String()
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, key)
			continue
		}
		seen[key] = struct{}{}
	}
	if len(duplicates) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dates must be unique").
			WithDetails(map[string]any{"dates": duplicates})
	}

	all := input.AllProducts == nil || *input.AllProducts
	scope, err := s.resolveScope(ctx, all, input.Products)
	if err != nil {
		return nil, err
	}

	blockedBy := defaultBlockedBy
	if actor != nil && strings.TrimSpace(actor.AdminID) != "" {
		blockedBy = actor.AdminID
	}
	blocks := make([]models.BlockedDate, 0, len(input.Dates))
	for _, d := range input.Dates {
		blocks = append(blocks, models.BlockedDate{
			ID:          uuid.New(),
			Date:        d,
			Reason:      input.Reason,
			Description: normalizeDescription(input.Description),
			AllProducts: all,
			Products:    scope,
			BlockedBy:   blockedBy,
			IsActive:    true,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindActiveByDates(ctx, input.Dates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing blocks")
		}
		if len(existing) > 0 {
			return alreadyBlocked(existing)
		}
		if err := repo.Create(ctx, blocks); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeAlreadyBlocked, "date is already blocked").
					WithDetails(map[string]any{"dates": dateStrings(input.Dates)})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create blocked dates")
		}
		for _, block := range blocks {
			if err := s.emitCreated(ctx, tx, block, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "create blocked dates")
	}
	return blocks, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	if query.Reason != nil && !query.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reason value")
	}
	if query.Start != nil && query.End != nil && query.Start.After(*query.End) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "startDate must not be after endDate")
	}
	query.Page = query.Page.Normalize()
	rows, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list blocked dates")
	}
	return &ListResult{
		BlockedDates: ToDTOs(rows),
		Pagination:   pagination.NewMeta(query.Page, total),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.BlockedDate, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blocked date id is required")
	}
	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "blocked date not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blocked date")
	}
	return block, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor *outbox.ActorRef) (*models.BlockedDate, error) {
	if input.Reason != nil && !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reason value").
			WithDetails(map[string]any{"allowed": enums.BlockReasons()})
	}
	block, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := block.IsActive

	if input.Reason != nil {
		block.Reason = *input.Reason
	}
	if input.Description != nil {
		block.Description = normalizeDescription(input.Description)
	}
	if input.AllProducts != nil || input.Products != nil {
		all := block.AllProducts
		if input.AllProducts != nil {
			all = *input.AllProducts
		}
		requested := []string(block.Products)
		if input.Products != nil {
			requested = *input.Products
		}
		scope, err := s.resolveScope(ctx, all, requested)
		if err != nil {
			return nil, err
		}
		block.AllProducts = all
		block.Products = scope
	}
	if input.IsActive != nil {
		block.IsActive = *input.IsActive
		if block.IsActive {
			block.DeletedAt = nil
		} else if wasActive {
			at := s.now().UTC()
			block.DeletedAt = &at
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Save(ctx, block); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeAlreadyBlocked, "date is already blocked").
					WithDetails(map[string]any{"dates": []string{block.Date.String()}})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update blocked date")
		}
		switch {
		case block.IsActive && !wasActive:
			return s.emitCreated(ctx, tx, *block, actor)
		case !block.IsActive && wasActive:
			return s.emitRemoved(ctx, tx, *block, actor)
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update blocked date")
	}
	return block, nil
}

// Delete soft deletes the block. Deleting an inactive block is a no-op.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "blocked date id is required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		block, err := repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "blocked date not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blocked date")
		}
		if !block.IsActive {
			return nil
		}
		if err := repo.SoftDelete(ctx, id, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove blocked date")
		}
		return s.emitRemoved(ctx, tx, *block, actor)
	})
	if err != nil {
		return asTyped(err, "remove blocked date")
	}
	return nil
}

func (s *service) Stats(ctx context.Context, start, end *types.Date) (*Stats, error) {
	if start != nil && end != nil && start.After(*end) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "startDate must not be after endDate")
	}
	blocks, err := s.repo.ListActiveInRange(ctx, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blocked dates")
	}
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.Slug] = p.DisplayName
	}
	stats := summarize(blocks, names)
	return &stats, nil
}

func (s *service) ListActiveInRange(ctx context.Context, start, end types.Date) ([]models.BlockedDate, error) {
	blocks, err := s.repo.ListActiveInRange(ctx, &start, &end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blocked dates")
	}
	return blocks, nil
}

func (s *service) IsBlocked(ctx context.Context, date types.Date, slug string) (bool, error) {
	blocks, err := s.repo.FindActiveByDates(ctx, []types.Date{date})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blocked dates")
	}
	for _, b := range blocks {
		if b.Covers(slug) {
			return true, nil
		}
	}
	return false, nil
}

// resolveScope validates a product-scoped block against the active catalog.
// All-product blocks carry no product list.
func (s *service) resolveScope(ctx context.Context, all bool, requested []string) (pq.StringArray, error) {
	if all {
		return pq.StringArray{}, nil
	}
	slugs := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, raw := range requested {
		slug := strings.TrimSpace(raw)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		slugs = append(slugs, slug)
	}
	if len(slugs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products are required when not blocking all products")
	}

	active, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	known := make(map[string]struct{}, len(active))
	for _, p := range active {
		known[p.Slug] = struct{}{}
	}
	var missing []string
	for _, slug := range slugs {
		if _, ok := known[slug]; !ok {
			missing = append(missing, slug)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnknownProduct, "one or more products not found or inactive").
			WithDetails(map[string]any{"products": missing})
	}
	sort.Strings(slugs)
	return pq.StringArray(slugs), nil
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, block models.BlockedDate, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventBlockoutCreated,
		AggregateType: enums.AggregateBlockout,
		AggregateID:   block.ID,
		Actor:         actor,
		Data: payloads.BlockoutCreatedEvent{
			BlockoutID:  block.ID,
			Date:        block.Date.String(),
			Reason:      block.Reason,
			AllProducts: block.AllProducts,
			Products:    []string(block.Products),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit blockout created")
	}
	return nil
}

func (s *service) emitRemoved(ctx context.Context, tx *gorm.DB, block models.BlockedDate, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventBlockoutRemoved,
		AggregateType: enums.AggregateBlockout,
		AggregateID:   block.ID,
		Actor:         actor,
		Data: payloads.BlockoutRemovedEvent{
			BlockoutID: block.ID,
			Date:       block.Date.String(),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit blockout removed")
	}
	return nil
}

func alreadyBlocked(existing []models.BlockedDate) error {
	dates := make([]string, 0, len(existing))
	for _, b := range existing {
		dates = append(dates, b.Date.String())
	}
	return pkgerrors.New(pkgerrors.CodeAlreadyBlocked, "date is already blocked").
		WithDetails(map[string]any{"dates": dates})
}

func dateStrings(dates []types.Date) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}

func normalizeDescription(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func asTyped(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
