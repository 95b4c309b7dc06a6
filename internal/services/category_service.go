package services

import (
	"context"
	"time"

	"localmart/internal/common"
	"localmart/internal/models"
	"localmart/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CategoryService owns the category tree: listing, writes with cycle
// rejection, leaf resolution and the sized-goods ancestry check that gates
// the size selector.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateCategory(ctx context.Context, name string, parentID *uuid.UUID) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string, parentID *uuid.UUID) error
	// DeleteCategory removes a leaf node. Deleting a category that still
	// has children is a conflict.
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	// ResolveLeafCategories walks the subtree under rootID and returns the
	// ids of categories with no children. A childless root resolves to
	// itself.
	ResolveLeafCategories(ctx context.Context, rootID uuid.UUID) (map[uuid.UUID]bool, error)
	// IsDescendantOfSizedRoot reports whether the category sits under the
	// configured sized-goods root (the root itself included).
	IsDescendantOfSizedRoot(ctx context.Context, categoryID uuid.UUID) (bool, error)
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
	sizedRootID  uuid.UUID
}

func NewCategoryService(categoryRepo repositories.CategoryRepository, sizedRootID uuid.UUID) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, sizedRootID: sizedRootID}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	const op = "category.list"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not list categories", err)
	}
	return categories, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, name string, parentID *uuid.UUID) (*models.Category, error) {
	const op = "category.create"
	if err := common.ValidateRequiredString(name, "name"); err != nil {
		return nil, common.E(common.KindValidation, op, err.Error())
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if parentID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *parentID); err != nil {
			if err == pgx.ErrNoRows {
				return nil, common.E(common.KindNotFound, op, "parent category not found")
			}
			return nil, common.WrapErr(common.KindPersistence, op, "could not look up parent category", err)
		}
	}

	category := &models.Category{
		ID:        uuid.New(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not create category", err)
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id uuid.UUID, name string, parentID *uuid.UUID) error {
	const op = "category.update"
	if err := common.ValidateRequiredString(name, "name"); err != nil {
		return common.E(common.KindValidation, op, err.Error())
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if parentID != nil {
		if *parentID == id {
			return common.E(common.KindValidation, op, "category cannot be its own parent")
		}
		categories, err := s.categoryRepo.ListAll(ctx)
		if err != nil {
			return common.WrapErr(common.KindPersistence, op, "could not load category tree", err)
		}
		if introducesCycle(categories, id, *parentID) {
			return common.E(common.KindValidation, op, "parent change would create a category cycle")
		}
	}

	err := s.categoryRepo.Update(ctx, &models.Category{ID: id, Name: name, ParentID: parentID})
	if err != nil {
		if err == pgx.ErrNoRows {
			return common.E(common.KindNotFound, op, "category not found")
		}
		return common.WrapErr(common.KindPersistence, op, "could not update category", err)
	}
	return nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	const op = "category.delete"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return common.WrapErr(common.KindPersistence, op, "could not load category tree", err)
	}
	if len(childIndex(categories)[id]) > 0 {
		return common.E(common.KindConflict, op, "category still has child categories")
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return common.E(common.KindNotFound, op, "category not found")
		}
		return common.WrapErr(common.KindPersistence, op, "could not delete category", err)
	}
	return nil
}

func (s *categoryService) ResolveLeafCategories(ctx context.Context, rootID uuid.UUID) (map[uuid.UUID]bool, error) {
	const op = "category.resolve_leaves"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not load category tree", err)
	}

	known := make(map[uuid.UUID]bool, len(categories))
	children := childIndex(categories)
	for _, c := range categories {
		known[c.ID] = true
	}
	if !known[rootID] {
		return nil, common.E(common.KindNotFound, op, "category not found")
	}

	leaves := make(map[uuid.UUID]bool)
	visited := make(map[uuid.UUID]bool)
	var walk func(id uuid.UUID)
	walk = func(id uuid.UUID) {
		if visited[id] {
			return // cycle guard
		}
		visited[id] = true
		kids := children[id]
		if len(kids) == 0 {
			leaves[id] = true
			return
		}
		for _, kid := range kids {
			walk(kid)
		}
	}
	walk(rootID)
	return leaves, nil
}

func (s *categoryService) IsDescendantOfSizedRoot(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	const op = "category.sized_descent"
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return false, common.WrapErr(common.KindPersistence, op, "could not load category tree", err)
	}

	parents := make(map[uuid.UUID]*uuid.UUID, len(categories))
	for _, c := range categories {
		parents[c.ID] = c.ParentID
	}
	if _, ok := parents[categoryID]; !ok {
		return false, common.E(common.KindNotFound, op, "category not found")
	}

	visited := make(map[uuid.UUID]bool)
	for id := categoryID; ; {
		if id == s.sizedRootID {
			return true, nil
		}
		if visited[id] {
			return false, nil // cycle guard
		}
		visited[id] = true
		parent, ok := parents[id]
		if !ok || parent == nil {
			return false, nil
		}
		id = *parent
	}
}

// introducesCycle reports whether re-parenting categoryID under newParentID
// would make categoryID its own ancestor.
func introducesCycle(categories []*models.Category, categoryID, newParentID uuid.UUID) bool {
	parents := make(map[uuid.UUID]*uuid.UUID, len(categories))
	for _, c := range categories {
		parents[c.ID] = c.ParentID
	}

	visited := make(map[uuid.UUID]bool)
	for id := newParentID; ; {
		if id == categoryID {
			return true
		}
		if visited[id] {
			return true // pre-existing cycle, refuse to extend it
		}
		visited[id] = true
		parent, ok := parents[id]
		if !ok || parent == nil {
			return false
		}
		id = *parent
	}
}

func childIndex(categories []*models.Category) map[uuid.UUID][]uuid.UUID {
	children := make(map[uuid.UUID][]uuid.UUID)
	for _, c := range categories {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}
	return children
}
