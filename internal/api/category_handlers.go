package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/search"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/tree"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createCategory",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories",
		Summary:     "Create category",
		Description: "Creates a category under the given parent (or at the root)",
		Tags:        []string{"Categories"},
	}, s.handleCreateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkCreateCategories",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories/bulk",
		Summary:     "Bulk create categories",
		Description: "Creates up to the configured batch of categories, reporting per-item outcomes",
		Tags:        []string{"Categories"},
	}, s.handleBulkCreateCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns the whole category tree in stable tree order",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "lookupCategoryByPath",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/lookup",
		Summary:     "Look up category by path",
		Description: "Resolves a materialized path (including the node's own id) to a category",
		Tags:        []string{"Categories"},
	}, s.handleLookupCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/search",
		Summary:     "Search categories",
		Description: "Finds categories whose name or code matches the query term",
		Tags:        []string{"Categories"},
	}, s.handleSearchCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategoryStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/stats",
		Summary:     "Category statistics",
		Description: "Returns tree-wide counters: node totals, max depth, type breakdown",
		Tags:        []string{"Categories"},
	}, s.handleCategoryStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderCategories",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories/reorder",
		Summary:     "Reorder siblings",
		Description: "Reassigns sibling order for exactly the children of a parent",
		Tags:        []string{"Categories"},
	}, s.handleReorderCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "validateCategoryTree",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories/integrity",
		Summary:     "Validate tree integrity",
		Description: "Runs the full structural integrity sweep and returns the report",
		Tags:        []string{"Categories"},
	}, s.handleValidateIntegrity)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategory",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Get category",
		Description: "Returns a category by ID",
		Tags:        []string{"Categories"},
	}, s.handleGetCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCategory",
		Method:      http.MethodPatch,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Update category",
		Description: "Updates category metadata (name, code); structure is immutable here",
		Tags:        []string{"Categories"},
	}, s.handleUpdateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCategory",
		Method:      http.MethodDelete,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Delete category",
		Description: "Soft-deletes a category; cascade removes the subtree, hard removes physically",
		Tags:        []string{"Categories"},
	}, s.handleDeleteCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveCategory",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories/{id}/move",
		Summary:     "Move category",
		Description: "Moves a category (and its subtree) to a new parent or sibling position",
		Tags:        []string{"Categories"},
	}, s.handleMoveCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategoryChildren",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}/children",
		Summary:     "Get category children",
		Description: "Returns direct children in sibling order",
		Tags:        []string{"Categories"},
	}, s.handleGetCategoryChildren)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategoryAncestors",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}/ancestors",
		Summary:     "Get category ancestors",
		Description: "Returns the ancestor chain, root first",
		Tags:        []string{"Categories"},
	}, s.handleGetCategoryAncestors)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategoryDescendants",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}/descendants",
		Summary:     "Get category descendants",
		Description: "Returns the subtree below a category, optionally bounded by relative depth",
		Tags:        []string{"Categories"},
	}, s.handleGetCategoryDescendants)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategorySiblings",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}/siblings",
		Summary:     "Get category siblings",
		Description: "Returns the other members of the category's sibling group",
		Tags:        []string{"Categories"},
	}, s.handleGetCategorySiblings)
}

// === DTOs ===

// CategoryResponse is the wire representation of a category.
type CategoryResponse struct {
	ID        string    `json:"id" doc:"Category ID"`
	Name      string    `json:"name" doc:"Display name"`
	Code      string    `json:"code" doc:"Lookup key, unique tree-wide"`
	Type      string    `json:"type" doc:"Category type: subject, chapter, or topic"`
	ParentID  string    `json:"parent_id,omitempty" doc:"Parent category ID (empty for roots)"`
	Path      string    `json:"path" doc:"Materialized ancestor-id path"`
	Depth     int       `json:"depth" doc:"Depth in tree, 0 for roots"`
	SortOrder int       `json:"sort_order" doc:"Dense position among siblings"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// CategoryListResponse wraps a list of categories.
type CategoryListResponse struct {
	Categories []CategoryResponse `json:"categories" doc:"List of categories"`
}

type CategoryOutput struct {
	Body CategoryResponse
}

type CategoryListOutput struct {
	Body CategoryListResponse
}

type CreateCategoryRequest struct {
	ParentID string `json:"parent_id,omitempty" doc:"Parent category ID (empty for a root)"`
	Name     string `json:"name" doc:"Display name"`
	Code     string `json:"code" doc:"Lookup key, unique tree-wide"`
	Type     string `json:"type" doc:"Category type: subject, chapter, or topic"`
	Order    *int   `json:"order,omitempty" doc:"Sibling position (appends when omitted)"`
}

type CreateCategoryInput struct {
	Body CreateCategoryRequest
}

type BulkCreateCategoriesInput struct {
	Body struct {
		Items []CreateCategoryRequest `json:"items" doc:"Categories to create, in order"`
	}
}

// BulkItemError describes why a single bulk item failed.
type BulkItemError struct {
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// BulkItemResult reports the outcome of one bulk item.
type BulkItemResult struct {
	Index    int               `json:"index" doc:"Position in the request batch"`
	Category *CategoryResponse `json:"category,omitempty" doc:"Created category on success"`
	Error    *BulkItemError    `json:"error,omitempty" doc:"Failure reason, if any"`
}

// BulkCreateResponse reports per-item outcomes for a bulk create.
type BulkCreateResponse struct {
	Results   []BulkItemResult `json:"results" doc:"Per-item outcomes, request order"`
	Succeeded int              `json:"succeeded" doc:"Number of created categories"`
	Failed    int              `json:"failed" doc:"Number of failed items"`
}

type BulkCreateOutput struct {
	Body BulkCreateResponse
}

type GetCategoryInput struct {
	ID string `path:"id" doc:"Category ID"`
}

type UpdateCategoryRequest struct {
	Name *string `json:"name,omitempty" doc:"New display name"`
	Code *string `json:"code,omitempty" doc:"New lookup key"`
}

type UpdateCategoryInput struct {
	ID   string `path:"id" doc:"Category ID"`
	Body UpdateCategoryRequest
}

type DeleteCategoryInput struct {
	ID      string `path:"id" doc:"Category ID"`
	Cascade bool   `query:"cascade" doc:"Delete the whole subtree"`
	Hard    bool   `query:"hard" doc:"Physically remove instead of soft delete"`
}

type MoveCategoryRequest struct {
	NewParentID *string `json:"new_parent_id,omitempty" doc:"Target parent ID; empty string moves to root, omit to keep the current parent"`
	NewOrder    *int    `json:"new_order,omitempty" doc:"Sibling position in the target group (appends when omitted)"`
}

type MoveCategoryInput struct {
	ID   string `path:"id" doc:"Category ID"`
	Body MoveCategoryRequest
}

type ReorderCategoriesRequest struct {
	ParentID   string   `json:"parent_id,omitempty" doc:"Parent whose children to reorder (empty for the root group)"`
	OrderedIDs []string `json:"ordered_ids" doc:"Every child of the parent, in the desired order"`
}

type ReorderCategoriesInput struct {
	Body ReorderCategoriesRequest
}

type GetDescendantsInput struct {
	ID       string `path:"id" doc:"Category ID"`
	MaxDepth int    `query:"max_depth" doc:"Bound on depth relative to the category (0 for unbounded)"`
}

type LookupCategoryInput struct {
	Path string `query:"path" doc:"Materialized path ending in the node's own id"`
}

type SearchCategoriesInput struct {
	Query string `query:"q" doc:"Search term, matched against name and code"`
	Limit int    `query:"limit" doc:"Maximum number of results"`
}

// StatsResponse summarizes the shape of the tree.
type StatsResponse struct {
	TotalNodes         int            `json:"total_nodes" doc:"Number of live categories"`
	MaxDepth           int            `json:"max_depth" doc:"Depth of the deepest category"`
	AvgChildrenPerNode float64        `json:"avg_children_per_node" doc:"Mean children across parents that have any"`
	NodesByType        map[string]int `json:"nodes_by_type" doc:"Category counts by type"`
}

type StatsOutput struct {
	Body StatsResponse
}

// IntegrityResponse wraps the structural sweep report.
type IntegrityResponse struct {
	Clean  bool        `json:"clean" doc:"True when the sweep found nothing wrong"`
	Report tree.Report `json:"report" doc:"Findings by defect class"`
}

type IntegrityOutput struct {
	Body IntegrityResponse
}

// MessageResponse carries a human-readable outcome message.
type MessageResponse struct {
	Message string `json:"message" doc:"Outcome message"`
}

type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleCreateCategory(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
	c, err := s.engine.Create(ctx, createSpec(input.Body))
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: mapCategoryResponse(c)}, nil
}

func (s *Server) handleBulkCreateCategories(ctx context.Context, input *BulkCreateCategoriesInput) (*BulkCreateOutput, error) {
	specs := make([]domain.CreateSpec, len(input.Body.Items))
	for i, item := range input.Body.Items {
		specs[i] = createSpec(item)
	}

	results, err := s.engine.BulkCreate(ctx, specs)
	if err != nil {
		return nil, err
	}

	resp := BulkCreateResponse{Results: make([]BulkItemResult, len(results))}
	for i, r := range results {
		item := BulkItemResult{Index: r.Index}
		if r.Err != nil {
			item.Error = &BulkItemError{
				Code:    string(r.Err.Code),
				Message: r.Err.Message,
				Details: r.Err.Details,
			}
			resp.Failed++
		} else {
			body := mapCategoryResponse(r.Node)
			item.Category = &body
			resp.Succeeded++
		}
		resp.Results[i] = item
	}

	return &BulkCreateOutput{Body: resp}, nil
}

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*CategoryListOutput, error) {
	nodes, err := s.query.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return listOutput(nodes), nil
}

func (s *Server) handleGetCategory(ctx context.Context, input *GetCategoryInput) (*CategoryOutput, error) {
	c, err := s.query.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: mapCategoryResponse(c)}, nil
}

func (s *Server) handleUpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
	c, err := s.engine.Update(ctx, input.ID, domain.UpdateSpec{
		Name: input.Body.Name,
		Code: input.Body.Code,
	})
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: mapCategoryResponse(c)}, nil
}

func (s *Server) handleDeleteCategory(ctx context.Context, input *DeleteCategoryInput) (*MessageOutput, error) {
	err := s.engine.Delete(ctx, domain.DeleteSpec{
		ID:      input.ID,
		Cascade: input.Cascade,
		Hard:    input.Hard,
	})
	if err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Category deleted"}}, nil
}

func (s *Server) handleMoveCategory(ctx context.Context, input *MoveCategoryInput) (*CategoryOutput, error) {
	c, err := s.engine.Move(ctx, domain.MoveSpec{
		ID:          input.ID,
		NewParentID: input.Body.NewParentID,
		NewOrder:    input.Body.NewOrder,
	})
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: mapCategoryResponse(c)}, nil
}

func (s *Server) handleReorderCategories(ctx context.Context, input *ReorderCategoriesInput) (*MessageOutput, error) {
	err := s.engine.ReorderSiblings(ctx, domain.ReorderSpec{
		ParentID:   input.Body.ParentID,
		OrderedIDs: input.Body.OrderedIDs,
	})
	if err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Siblings reordered"}}, nil
}

func (s *Server) handleGetCategoryChildren(ctx context.Context, input *GetCategoryInput) (*CategoryListOutput, error) {
	nodes, err := s.query.GetChildren(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return listOutput(nodes), nil
}

func (s *Server) handleGetCategoryAncestors(ctx context.Context, input *GetCategoryInput) (*CategoryListOutput, error) {
	nodes, err := s.query.GetAncestors(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return listOutput(nodes), nil
}

func (s *Server) handleGetCategoryDescendants(ctx context.Context, input *GetDescendantsInput) (*CategoryListOutput, error) {
	nodes, err := s.query.GetDescendants(ctx, input.ID, input.MaxDepth)
	if err != nil {
		return nil, err
	}
	return listOutput(nodes), nil
}

func (s *Server) handleGetCategorySiblings(ctx context.Context, input *GetCategoryInput) (*CategoryListOutput, error) {
	nodes, err := s.query.GetSiblings(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return listOutput(nodes), nil
}

func (s *Server) handleLookupCategory(ctx context.Context, input *LookupCategoryInput) (*CategoryOutput, error) {
	c, err := s.query.FindByPath(ctx, input.Path)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: mapCategoryResponse(c)}, nil
}

func (s *Server) handleSearchCategories(ctx context.Context, input *SearchCategoriesInput) (*CategoryListOutput, error) {
	if s.searchIndex != nil {
		return s.searchRanked(ctx, input)
	}

	nodes, err := s.query.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	return listOutput(nodes), nil
}

// searchRanked serves the search from the full-text index, hydrating hits
// from the store. Hits whose category vanished since indexing are skipped;
// the index catches up asynchronously.
func (s *Server) searchRanked(ctx context.Context, input *SearchCategoriesInput) (*CategoryListOutput, error) {
	params := search.DefaultParams()
	params.Query = input.Query
	if input.Limit > 0 {
		params.Limit = input.Limit
	}

	result, err := s.searchIndex.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	resp := CategoryListResponse{Categories: make([]CategoryResponse, 0, len(result.Hits))}
	err = s.store.View(ctx, func(tx store.ReadTx) error {
		for _, hit := range result.Hits {
			c, err := tx.Node(hit.ID)
			if err != nil {
				continue
			}
			resp.Categories = append(resp.Categories, mapCategoryResponse(c))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CategoryListOutput{Body: resp}, nil
}

func (s *Server) handleCategoryStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.query.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]int, len(stats.NodesByType))
	for t, n := range stats.NodesByType {
		byType[string(t)] = n
	}

	return &StatsOutput{Body: StatsResponse{
		TotalNodes:         stats.TotalNodes,
		MaxDepth:           stats.MaxDepth,
		AvgChildrenPerNode: stats.AvgChildrenPerNode,
		NodesByType:        byType,
	}}, nil
}

func (s *Server) handleValidateIntegrity(ctx context.Context, _ *struct{}) (*IntegrityOutput, error) {
	report, err := s.engine.ValidateIntegrity(ctx)
	if err != nil {
		return nil, err
	}
	return &IntegrityOutput{Body: IntegrityResponse{
		Clean:  report.Clean(),
		Report: *report,
	}}, nil
}

// === Mappers ===

func createSpec(req CreateCategoryRequest) domain.CreateSpec {
	return domain.CreateSpec{
		ParentID: req.ParentID,
		Name:     req.Name,
		Code:     req.Code,
		Type:     domain.CategoryType(req.Type),
		Order:    req.Order,
	}
}

func mapCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Code:      c.Code,
		Type:      string(c.Type),
		ParentID:  c.ParentID,
		Path:      c.Path,
		Depth:     c.Depth,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func listOutput(nodes []*domain.Category) *CategoryListOutput {
	resp := CategoryListResponse{Categories: make([]CategoryResponse, len(nodes))}
	for i, c := range nodes {
		resp.Categories[i] = mapCategoryResponse(c)
	}
	return &CategoryListOutput{Body: resp}
}
