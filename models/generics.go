package models

import (
	"context"
	"errors"

	"github.com/mmdatafocus/tradeportal_backend/utils"
)

// Resource is reference data that may be served from redis.
type Resource interface {
	GetBusinessId() string
}

// first find in redis, then in db, using ctx's business_id in WHERE, cache result
// (may return ErrorRecordNotFound)
func GetResource[T Resource](ctx context.Context, id int, associations ...string) (*T, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.RetrieveRedis[T](ctx, id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchModel[T](ctx, businessId, id, associations...)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[T](ctx, result, id); err != nil {
			return nil, err
		}
	} else if (*result).GetBusinessId() != businessId {
		return nil, errors.New("cannot access resource owned by other business")
	}

	return result, nil
}

// clearResource drops a cached reference row after it changes.
func clearResource[T Resource](ctx context.Context, id int) error {
	return utils.RemoveRedisItem[T](ctx, id)
}
