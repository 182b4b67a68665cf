package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wodoame/smecs/internal/domain/category"
	"github.com/wodoame/smecs/internal/domain/inventory"
	"github.com/wodoame/smecs/internal/domain/product"
	"github.com/wodoame/smecs/internal/domain/review"
)

const pageFields = `page size totalElements totalPages first last empty`

const (
	categoryFields  = `categoryId categoryName description imageUrl`
	productFields   = `id name description price imageUrl category { ` + categoryFields + ` }`
	reviewFields    = `id userId productId userName rating comment createdAt`
	inventoryFields = `id quantity product { ` + productFields + ` }`
)

var (
	categoriesQuery = `query Categories($page: Int, $size: Int) {
  categories(page: $page, size: $size) { content { ` + categoryFields + ` } ` + pageFields + ` }
}`
	productsByCategoryQuery = `query ProductsByCategory($categoryId: String, $page: Int, $size: Int) {
  products(categoryId: $categoryId, page: $page, size: $size) { content { ` + productFields + ` } ` + pageFields + ` }
}`
	reviewsByProductQuery = `query ReviewsByProduct($productId: String!, $page: Int, $size: Int) {
  reviewsByProduct(productId: $productId, page: $page, size: $size) { content { ` + reviewFields + ` } ` + pageFields + ` }
}`
	inventoriesQuery = `query Inventories($page: Int, $size: Int) {
  inventories(page: $page, size: $size) { content { ` + inventoryFields + ` } ` + pageFields + ` }
}`
	inventoryByIDQuery = `query InventoryById($id: String!) {
  inventoryById(id: $id) { ` + inventoryFields + ` }
}`
	createInventoryMutation = `mutation CreateInventory($input: CreateInventoryInput!) {
  createInventory(input: $input) { ` + inventoryFields + ` }
}`
	updateInventoryMutation = `mutation UpdateInventory($id: String!, $input: UpdateInventoryInput!) {
  updateInventory(id: $id, input: $input) { ` + inventoryFields + ` }
}`
	deleteInventoryMutation = `mutation DeleteInventory($id: String!) {
  deleteInventory(id: $id)
}`
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions"`
}

// code returns the structured error code. Messages are never inspected.
func (e gqlError) code() string {
	for _, key := range []string{"classification", "errorType", "code"} {
		if v, ok := e.Extensions[key].(string); ok && v != "" {
			return strings.ToUpper(v)
		}
	}
	return ""
}

// graphql runs one operation and decodes data.<field> into out. Errors in
// the errors[] array are classified by their extensions code.
func (c *Client) graphql(ctx context.Context, op, token, query string, vars map[string]any, field string, out any) error {
	raw, err := c.call(ctx, op, http.MethodPost, c.gqlPath, token, gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(raw) {
		return malformed(op, errInvalidJSON)
	}
	if errs := gjson.GetBytes(raw, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		var list []gqlError
		if err := json.Unmarshal([]byte(errs.Raw), &list); err != nil {
			return malformed(op, err)
		}
		msgs := make([]string, 0, len(list))
		for _, e := range list {
			msgs = append(msgs, e.Message)
		}
		return &Error{Op: op, Kind: kindForClassification(list[0].code()), Message: strings.Join(msgs, "; ")}
	}
	if out == nil {
		return nil
	}
	data := gjson.GetBytes(raw, "data."+field)
	if !data.Exists() || data.Type == gjson.Null {
		return &Error{Op: op, Kind: ErrNotFound, Message: field + " returned null"}
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return malformed(op, err)
	}
	return nil
}

// gqlPage is the paged DTO the GraphQL schema exposes.
type gqlPage[T any] struct {
	Content []T `json:"content"`
	PageInfo
}

func (p gqlPage[T]) page() Page[T] {
	items := p.Content
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Info: p.PageInfo}
}

func pageVars(q PageQuery) map[string]any {
	vars := map[string]any{}
	if q.Page > 0 {
		vars["page"] = q.Page
	}
	if q.Size > 0 {
		vars["size"] = q.Size
	}
	return vars
}

func (c *Client) GraphQLCategories(ctx context.Context, q PageQuery) (Page[category.Category], error) {
	var res gqlPage[categoryDTO]
	if err := c.graphql(ctx, "gql.categories", "", categoriesQuery, pageVars(q), "categories", &res); err != nil {
		return Page[category.Category]{}, err
	}
	return mapPage(res.page(), categoryDTO.category), nil
}

func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64, q PageQuery) (Page[product.Product], error) {
	vars := pageVars(q)
	vars["categoryId"] = strconv.FormatInt(categoryID, 10)
	var res gqlPage[productDTO]
	if err := c.graphql(ctx, "gql.products_by_category", "", productsByCategoryQuery, vars, "products", &res); err != nil {
		return Page[product.Product]{}, err
	}
	return mapPage(res.page(), productDTO.product), nil
}

func (c *Client) ReviewsByProduct(ctx context.Context, productID int64, q PageQuery) (Page[review.Review], error) {
	vars := pageVars(q)
	vars["productId"] = strconv.FormatInt(productID, 10)
	var res gqlPage[reviewDTO]
	if err := c.graphql(ctx, "gql.reviews_by_product", "", reviewsByProductQuery, vars, "reviewsByProduct", &res); err != nil {
		return Page[review.Review]{}, err
	}
	return mapPage(res.page(), reviewDTO.review), nil
}

// GraphQLInventory manages inventory through named GraphQL operations.
type GraphQLInventory struct {
	c *Client
}

func (c *Client) GraphQLInventory() GraphQLInventory {
	return GraphQLInventory{c: c}
}

func (g GraphQLInventory) List(ctx context.Context, token string, q PageQuery) (Page[inventory.Inventory], error) {
	var res gqlPage[inventoryDTO]
	if err := g.c.graphql(ctx, "gql.inventories", token, inventoriesQuery, pageVars(q), "inventories", &res); err != nil {
		return Page[inventory.Inventory]{}, err
	}
	return mapPage(res.page(), inventoryDTO.inventory), nil
}

func (g GraphQLInventory) Get(ctx context.Context, token string, id int64) (inventory.Inventory, error) {
	var res inventoryDTO
	vars := map[string]any{"id": strconv.FormatInt(id, 10)}
	if err := g.c.graphql(ctx, "gql.inventory_by_id", token, inventoryByIDQuery, vars, "inventoryById", &res); err != nil {
		return inventory.Inventory{}, err
	}
	return res.inventory(), nil
}

func (g GraphQLInventory) Create(ctx context.Context, token string, in inventory.Input) (inventory.Inventory, error) {
	var res inventoryDTO
	vars := map[string]any{"input": newInventoryReq(in)}
	if err := g.c.graphql(ctx, "gql.create_inventory", token, createInventoryMutation, vars, "createInventory", &res); err != nil {
		return inventory.Inventory{}, err
	}
	return res.inventory(), nil
}

func (g GraphQLInventory) Update(ctx context.Context, token string, id int64, in inventory.Input) (inventory.Inventory, error) {
	var res inventoryDTO
	vars := map[string]any{"id": strconv.FormatInt(id, 10), "input": newInventoryReq(in)}
	if err := g.c.graphql(ctx, "gql.update_inventory", token, updateInventoryMutation, vars, "updateInventory", &res); err != nil {
		return inventory.Inventory{}, err
	}
	return res.inventory(), nil
}

func (g GraphQLInventory) Delete(ctx context.Context, token string, id int64) error {
	vars := map[string]any{"id": strconv.FormatInt(id, 10)}
	return g.c.graphql(ctx, "gql.delete_inventory", token, deleteInventoryMutation, vars, "deleteInventory", nil)
}
