// Package aggregate lines up a batch request with the paths the fetcher returned.
package aggregate

import (
	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
)

// Results zips ids and paths positionally. The fetcher either returns one
// path per requested item or fails the whole call, so any length mismatch
// is reported as a ConsistencyError instead of a shortened list.
func Results(ids, paths []string) ([]domain.ItemResult, error) {
	if len(ids) != len(paths) {
		return nil, &errpkg.ConsistencyError{Requested: len(ids), Returned: len(paths)}
	}

	results := make([]domain.ItemResult, len(ids))
	for i := range ids {
		results[i] = domain.ItemResult{ID: ids[i], Path: paths[i]}
	}
	return results, nil
}

// Outcome builds the batch outcome for ids and paths.
func Outcome(ids, paths []string) (*domain.Outcome, error) {
	items, err := Results(ids, paths)
	if err != nil {
		return nil, err
	}
	return &domain.Outcome{
		Paths: append([]string(nil), paths...),
		Items: items,
	}, nil
}
