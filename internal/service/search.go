package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// SearchService answers the cross-entity search and the site statistics.
//
// FAN-OUT:
// Each entity is queried on its own goroutine through an errgroup. The first
// failure cancels the others.
type SearchService struct {
	finds   repository.FindRepository
	reviews repository.ReviewRepository
	tags    repository.TagRepository
	users   repository.UserRepository
	stats   repository.StatsRepository
}

func NewSearchService(
	finds repository.FindRepository,
	reviews repository.ReviewRepository,
	tags repository.TagRepository,
	users repository.UserRepository,
	stats repository.StatsRepository,
) *SearchService {
	return &SearchService{
		finds:   finds,
		reviews: reviews,
		tags:    tags,
		users:   users,
		stats:   stats,
	}
}

// Search looks term up in finds, reviews, tags and users, returning at most
// limit matches of each. limit defaults to DefaultSearchLimit.
func (s *SearchService) Search(ctx context.Context, term string, limit int) (*model.SearchResults, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.ValidationFailed("searchterm", "searchterm is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	results := &model.SearchResults{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		finds, err := s.finds.List(gctx, repository.FindQuery{
			ListOptions: repository.ListOptions{Limit: limit},
			Title:       term,
			SortBy:      repository.SortByCreatedAt,
			SortOrder:   repository.SortDesc,
		})
		if err != nil {
			return fmt.Errorf("searching finds: %w", err)
		}
		results.Finds = finds
		return nil
	})
	g.Go(func() error {
		reviews, err := s.reviews.Search(gctx, term, limit)
		if err != nil {
			return fmt.Errorf("searching reviews: %w", err)
		}
		results.Reviews = reviews
		return nil
	})
	g.Go(func() error {
		tags, err := s.tags.Search(gctx, strings.TrimPrefix(strings.ToLower(term), "#"), limit)
		if err != nil {
			return fmt.Errorf("searching tags: %w", err)
		}
		results.Tags = tags
		return nil
	})
	g.Go(func() error {
		users, err := s.users.Search(gctx, strings.TrimPrefix(term, "@"), limit)
		if err != nil {
			return fmt.Errorf("searching users: %w", err)
		}
		results.Users = users
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stats counts every main entity concurrently.
func (s *SearchService) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{}
	g, gctx := errgroup.WithContext(ctx)
	for entity, dest := range map[repository.Entity]*int64{
		repository.EntityUsers:   &stats.UsersCount,
		repository.EntityFinds:   &stats.FindsCount,
		repository.EntityReviews: &stats.ReviewsCount,
		repository.EntityLists:   &stats.ListsCount,
		repository.EntityTags:    &stats.TagsCount,
	} {
		g.Go(func() error {
			n, err := s.stats.Count(gctx, entity)
			if err != nil {
				return fmt.Errorf("counting %s: %w", entity, err)
			}
			*dest = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
