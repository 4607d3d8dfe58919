package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
)

const mysqlDuplicateEntry = 1062

func init() {
	// lets gt=0 / gte=0 bind against decimal amounts
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	}
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

func respondError(c *gin.Context, err error) {
	var mysqlErr *mysql.MySQLError
	switch {
	case utils.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrorInvalidLogin), errors.Is(err, models.ErrorUserDisabled):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case utils.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case utils.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry:
		c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate entry"})
	default:
		_ = c.Error(err)
		config.LogError(config.GetLogger(), "handlers", c.HandlerName(), c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindJSON writes the 400 itself; callers return when it reports false.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return false
	}
	return true
}

func paramId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryString(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(c *gin.Context, key string) (*int, error) {
	v := queryString(c, key)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil, utils.NewValidationError("invalid %s", key)
	}
	return &n, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	v := queryString(c, key)
	if v == nil {
		return nil, nil
	}
	b, err := strconv.ParseBool(*v)
	if err != nil {
		return nil, utils.NewValidationError("invalid %s", key)
	}
	return &b, nil
}

// queryDate accepts YYYY-MM-DD or RFC3339.
func queryDate(c *gin.Context, key string) (*time.Time, error) {
	v := queryString(c, key)
	if v == nil {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, *v); err == nil {
			return &t, nil
		}
	}
	return nil, utils.NewValidationError("invalid %s", key)
}

func queryLimit(c *gin.Context) (int, error) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return 0, err
	}
	return utils.DereferencePtr(limit), nil
}
