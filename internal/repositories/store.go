// Package repositories contains one storage accessor per entity. Each
// accessor owns its table's column allow-list, executes query.Spec, and
// translates driver errors into the domain taxonomy at this boundary.
package repositories

import (
	"context"
	"sort"
	"strings"

	"tourbook/internal/domain/models"
	"tourbook/internal/query"
)

// Store is the capability set the generic CRUD handlers require of an
// entity accessor. Scope restricts a listing to a parent (nested routes);
// its keys are column names supplied by server code, never by clients.
type Store[T any] interface {
	Find(ctx context.Context, spec query.Spec, scope map[string]any) ([]T, error)
	FindByID(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, id int64, patch map[string]any) (T, error)
	Delete(ctx context.Context, id int64) error
}

// listQuery assembles a SELECT for one spec. baseWhere holds accessor
// invariants (soft-delete, secret flags); scope holds parent restrictions.
func listQuery(table string, cols []string, spec query.Spec, allowed map[string]string, baseWhere string, baseArgs []any, scope map[string]any) (string, []any, error) {
	where, args, err := spec.Where(allowed)
	if err != nil {
		return "", nil, err
	}

	clauses := make([]string, 0, 3)
	all := make([]any, 0, len(baseArgs)+len(args)+len(scope)+2)
	if baseWhere != "" {
		clauses = append(clauses, baseWhere)
		all = append(all, baseArgs...)
	}
	if where != "" {
		clauses = append(clauses, where)
		all = append(all, args...)
	}
	for _, col := range sortedKeys(scope) {
		clauses = append(clauses, col+" = ?")
		all = append(all, scope[col])
	}

	order, err := spec.OrderBy(allowed)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	if order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}
	b.WriteString(" LIMIT ? OFFSET ?")
	limit, offset := spec.LimitOffset()
	all = append(all, limit, offset)

	return b.String(), all, nil
}

// patchAssignments filters a JSON patch through the accessor's column
// map and renders SET assignments. Unknown keys are dropped; the factory
// performs no field validation, only the accessor decides what is
// writable.
func patchAssignments(patch map[string]any, writable map[string]string) (string, []any) {
	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch))
	for _, field := range sortedKeys(patch) {
		col, ok := writable[field]
		if !ok {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, patch[field])
	}
	return strings.Join(sets, ", "), args
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// compile-time wiring checks
var (
	_ Store[models.Tour]    = TourRepo{}
	_ Store[models.User]    = UserRepo{}
	_ Store[models.Review]  = ReviewRepo{}
	_ Store[models.Booking] = BookingRepo{}
)
