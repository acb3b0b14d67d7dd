package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"tourbook/internal/domain"
	"tourbook/internal/query"
	"tourbook/internal/repositories"
)

// ScopeFunc derives a parent restriction from the route, e.g. reviews
// nested under a tour. Keys are column names chosen by server code.
type ScopeFunc func(c *gin.Context) map[string]any

// The factory constructors below produce the five generic CRUD handlers
// for any entity with a storage accessor. Validation belongs to the
// accessor; the factory only checks existence and shapes responses.

func GetAll[T any](store repositories.Store[T], scope ScopeFunc) gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		spec, err := query.Build(c.Request.URL.Query())
		if err != nil {
			return err
		}
		var sc map[string]any
		if scope != nil {
			sc = scope(c)
		}
		items, err := store.Find(c.Request.Context(), spec, sc)
		if err != nil {
			return err
		}
		payload, err := projectItems(spec, items)
		if err != nil {
			return err
		}
		list(c, len(items), payload)
		return nil
	})
}

func GetOne[T any](store repositories.Store[T]) gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		item, err := store.FindByID(c.Request.Context(), id)
		if err != nil {
			return err
		}
		ok(c, item)
		return nil
	})
}

func CreateOne[T any](store repositories.Store[T]) gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		var entity T
		if err := c.ShouldBindJSON(&entity); err != nil {
			return domain.NewValidation(err.Error())
		}
		if err := store.Create(c.Request.Context(), &entity); err != nil {
			return err
		}
		created(c, entity)
		return nil
	})
}

func UpdateOne[T any](store repositories.Store[T]) gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		var patch map[string]any
		if err := c.ShouldBindJSON(&patch); err != nil {
			return domain.NewValidation(err.Error())
		}
		current, err := store.FindByID(c.Request.Context(), id)
		if err != nil {
			return err
		}
		if err := validatePatched(current, patch); err != nil {
			return err
		}
		item, err := store.Update(c.Request.Context(), id, patch)
		if err != nil {
			return err
		}
		ok(c, item)
		return nil
	})
}

// validatePatched overlays the patch onto the stored entity and re-runs
// the binding rules that guard creation, so a partial update cannot
// smuggle in values the create path would reject.
func validatePatched[T any](current T, patch map[string]any) error {
	raw, err := json.Marshal(current)
	if err != nil {
		return domain.NewInternal(err)
	}
	var merged map[string]any
	if err := json.Unmarshal(raw, &merged); err != nil {
		return domain.NewInternal(err)
	}
	for k, v := range patch {
		merged[k] = v
	}
	buf, err := json.Marshal(merged)
	if err != nil {
		return domain.NewInternal(err)
	}
	var entity T
	if err := json.Unmarshal(buf, &entity); err != nil {
		return domain.NewValidation(err.Error())
	}
	if binding.Validator != nil {
		if err := binding.Validator.ValidateStruct(&entity); err != nil {
			return domain.NewValidation(err.Error())
		}
	}
	return nil
}

func DeleteOne[T any](store repositories.Store[T]) gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		if err := store.Delete(c.Request.Context(), id); err != nil {
			return err
		}
		noContent(c)
		return nil
	})
}

// projectItems applies the requested field projection to the serialized
// page. Without a projection the typed slice passes straight through.
func projectItems[T any](spec query.Spec, items []T) (any, error) {
	if len(spec.Fields) == 0 {
		return items, nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	var maps []map[string]any
	if err := json.Unmarshal(raw, &maps); err != nil {
		return nil, domain.NewInternal(err)
	}
	out := make([]map[string]any, len(maps))
	for i, m := range maps {
		out[i] = spec.Project(m)
	}
	return out, nil
}
