package utils

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

func redisItemKey[T any](id int) string {
	return GetTypeName[T]() + ":" + fmt.Sprint(id)
}

/*
Cached types hold reference data only (companies, member types, suppliers...).
Balances are read from the database by every ledger operation, never from this cache.
*/

func StoreRedis[T any](ctx context.Context, obj *T, id int) error {
	return config.SetRedisObject(ctx, redisItemKey[T](id), obj, GetCacheLifespan())
}

// returns nil if does not exist
func RetrieveRedis[T any](ctx context.Context, id int) (*T, error) {
	var result T
	exists, err := config.GetRedisObject(ctx, redisItemKey[T](id), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](ctx context.Context, id int) error {
	return config.RemoveRedisKey(ctx, redisItemKey[T](id))
}
