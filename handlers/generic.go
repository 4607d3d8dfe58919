package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Most resources share the same create/read/update/delete shape over the models package.

func createHandler[I any, T any](create func(ctx context.Context, input *I) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input I
		if !bindJSON(c, &input) {
			return
		}
		result, err := create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, result)
	}
}

func getHandler[T any](get func(ctx context.Context, id int) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		result, err := get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, result)
	}
}

func updateHandler[I any, T any](update func(ctx context.Context, id int, input *I) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input I
		if !bindJSON(c, &input) {
			return
		}
		result, err := update(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, result)
	}
}

func deleteHandler[T any](del func(ctx context.Context, id int) (*T, error)) gin.HandlerFunc {
	return idHandler(del)
}

// actionHandler serves state transitions that take only the id (approve, reject).
func actionHandler[T any](action func(ctx context.Context, id int) (*T, error)) gin.HandlerFunc {
	return idHandler(action)
}

func idHandler[T any](fn func(ctx context.Context, id int) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		result, err := fn(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, result)
	}
}

type toggleActiveInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func toggleActiveHandler[T any](toggle func(ctx context.Context, id int, isActive bool) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input toggleActiveInput
		if !bindJSON(c, &input) {
			return
		}
		result, err := toggle(c.Request.Context(), id, *input.IsActive)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, result)
	}
}
