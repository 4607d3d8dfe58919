package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

type nameLookup func(ctx context.Context, businessId string, ids []int) (map[int]string, error)

// nameReader batches id -> display name lookups for list responses.
type nameReader struct {
	lookup nameLookup
}

func (r *nameReader) getNames(ctx context.Context, ids []int) []*dataloader.Result[string] {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return handleError[string](len(ids), errors.New("business id is required"))
	}
	names, err := r.lookup(ctx, businessId, ids)
	if err != nil {
		return handleError[string](len(ids), err)
	}
	results := make([]*dataloader.Result[string], len(ids))
	for i, id := range ids {
		results[i] = &dataloader.Result[string]{Data: names[id]}
	}
	return results
}

type Loaders struct {
	companyNameLoader    *dataloader.Loader[int, string]
	memberTypeNameLoader *dataloader.Loader[int, string]
	workerNameLoader     *dataloader.Loader[int, string]
}

func NewLoaders() *Loaders {
	companyNameReader := &nameReader{lookup: models.CompanyNames}
	memberTypeNameReader := &nameReader{lookup: models.MemberTypeNames}
	workerNameReader := &nameReader{lookup: models.WorkerNames}

	return &Loaders{
		companyNameLoader:    dataloader.NewBatchedLoader(companyNameReader.getNames, dataloader.WithWait[int, string](time.Millisecond)),
		memberTypeNameLoader: dataloader.NewBatchedLoader(memberTypeNameReader.getNames, dataloader.WithWait[int, string](time.Millisecond)),
		workerNameLoader:     dataloader.NewBatchedLoader(workerNameReader.getNames, dataloader.WithWait[int, string](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders()
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

func loadNames(ctx context.Context, loader *dataloader.Loader[int, string], ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	values, errs := loader.LoadMany(ctx, ids)()
	for i, id := range ids {
		if len(errs) > i && errs[i] != nil {
			return nil, errs[i]
		}
		names[id] = values[i]
	}
	return names, nil
}

func GetCompanyNames(ctx context.Context, ids []int) (map[int]string, error) {
	return loadNames(ctx, For(ctx).companyNameLoader, ids)
}

func GetMemberTypeNames(ctx context.Context, ids []int) (map[int]string, error) {
	return loadNames(ctx, For(ctx).memberTypeNameLoader, ids)
}

func GetWorkerNames(ctx context.Context, ids []int) (map[int]string, error) {
	return loadNames(ctx, For(ctx).workerNameLoader, ids)
}
