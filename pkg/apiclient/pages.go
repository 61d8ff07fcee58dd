package apiclient

import "context"

// PageFunc fetches one 1-based page of results. Implementations return an
// empty slice when the page is past the end.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// CollectPages drains a paginated endpoint: it fetches page 1, 2, … until
// a page comes back empty, concatenating the results in order.
func CollectPages[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		batch, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return all, nil
		}
		all = append(all, batch...)
	}
}
