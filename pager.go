package bookmarker

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RawPager is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawPager `json:",inline"`
//	}
type RawPager struct {
	// Limit - maximum number of records to return in the response.
	Limit int `json:"limit" form:"limit" mapstructure:"limit"`
	// StartToken - base64-encoded bookmark obtained via Bookmark.Token().
	// If empty, the first page with Limit records is returned.
	StartToken string `json:"startToken" form:"startToken" mapstructure:"start_token"`
}

// Page is one fetched page of a collection.
type Page[T any] struct {
	// Items result elements.
	Items []T
	// NextBookmark position of the last item, nil on the last page.
	NextBookmark Bookmark
	// AppliedLimit effective limit used for the query.
	AppliedLimit int
}

// NextPageToken returns the opaque token of NextBookmark, "" on the last page.
func (p Page[T]) NextPageToken() string {
	return p.NextBookmark.String()
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return !p.NextBookmark.IsEmpty()
}

// Pager holds the paging state of one request: limit, lookahead and the
// bookmark to resume from.
type Pager[T any] struct {
	bookmarker *Bookmarker[T]
	lookahead  bool
	limit      int
	bookmark   Bookmark
}

// DecodePager decodes a RawPager into a Pager, normalising Limit and
// validating StartToken. A token that is malformed or does not fit the
// SortKey yields ErrInvalidBookmark.
func (b *Bookmarker[T]) DecodePager(raw RawPager) (*Pager[T], error) {
	bookmark, err := DecodeBookmark(raw.StartToken)
	if err != nil {
		b.logger.Warn("bookmark rejected: cannot decode token", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidBookmark, err)
	}
	if !bookmark.IsEmpty() && !b.Validate(bookmark) {
		return nil, ErrInvalidBookmark
	}

	return b.Pager().WithLimit(raw.Limit).WithBookmark(bookmark), nil
}

// WithLookahead enables lookahead pagination, which checks the next page to
// determine whether the current page is the last.
//
// IMPORTANT:
// Cannot be used together with WithUnlimited() or WithLimit(NoLimit).
func (p *Pager[T]) WithLookahead() *Pager[T] {
	p.lookahead = true

	return p
}

// WithUnlimited allows returning all records without a limit.
//
// IMPORTANT:
// Cannot be used together with WithLookahead.
func (p *Pager[T]) WithUnlimited() *Pager[T] {
	p.limit = NoLimit

	return p
}

// WithLimit sets the maximum number of returned records.
//
// IMPORTANT:
//   - NoLimit cannot be used together with WithLookahead.
//   - If the limit is not NoLimit, Config.IsNormalizedLimit will be applied.
func (p *Pager[T]) WithLimit(limit int) *Pager[T] {
	if limit == NoLimit {
		return p.WithUnlimited()
	}
	normalized, kept := p.bookmarker.config.IsNormalizedLimit(limit)
	if !kept {
		p.bookmarker.logger.Debug("limit normalized", zap.Int("requested", limit), zap.Int("applied", normalized))
	}
	p.limit = normalized

	return p
}

// WithBookmark sets the position to resume from. Nil starts from the
// beginning of the collection.
func (p *Pager[T]) WithBookmark(bookmark Bookmark) *Pager[T] {
	p.bookmark = bookmark

	return p
}

// Paginate applies ordering, the bookmark restriction and the limit to the
// dataset.
func (p *Pager[T]) Paginate(db *gorm.DB) (*gorm.DB, error) {
	err := p.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	db, err = p.bookmarker.Restrict(db, p.bookmark)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	// When lookahead is enabled, fetch one extra record to determine if there
	// is a next page.
	if p.limit != NoLimit {
		db = db.Limit(p.GetDatasetLimit())
	}

	return db, nil
}

// Fetch paginates scope, loads the rows and builds the page.
func (p *Pager[T]) Fetch(ctx context.Context, scope *gorm.DB) (Page[T], error) {
	paged, err := p.Paginate(scope.WithContext(ctx))
	if err != nil {
		return Page[T]{}, err
	}

	var resultSet []T
	if err = paged.Find(&resultSet).Error; err != nil {
		return Page[T]{}, fmt.Errorf("cannot fetch page: %w", err)
	}

	return p.NextPage(resultSet)
}

// NextPage builds the page out of a fetched result set, computing the next
// bookmark from its last item.
func (p *Pager[T]) NextPage(resultSet []T) (Page[T], error) {
	err := p.validate()
	if err != nil {
		return Page[T]{}, fmt.Errorf("cannot build next page: %w", err)
	}

	page := Page[T]{AppliedLimit: p.limit}
	if IsLastPage(p, resultSet) {
		page.Items = resultSet
		return page, nil
	}

	page.Items = TrimResultSet(p, resultSet)
	page.NextBookmark = p.bookmarker.BookmarkFor(lo.LastOrEmpty(page.Items))

	return page, nil
}

// IsUnlimited returns true if the limit equals NoLimit (unbounded number of records).
func (p *Pager[T]) IsUnlimited() bool {
	return p.limit == NoLimit
}

// IsLookahead returns true if lookahead pagination is enabled.
func (p *Pager[T]) IsLookahead() bool {
	return p.lookahead
}

// GetLimit returns the limit as it is stored in Pager.
func (p *Pager[T]) GetLimit() int {
	return p.limit
}

// GetBookmark returns the bookmark the pager resumes from.
func (p *Pager[T]) GetBookmark() Bookmark {
	return p.bookmark
}

// GetDatasetLimit returns the limit adjusted for lookahead:
//   - if Lookahead = true → GetLimit() + 1
//   - if Lookahead = false → GetLimit()
func (p *Pager[T]) GetDatasetLimit() int {
	return lo.Ternary(p.lookahead, p.limit+1, p.limit)
}

func (p *Pager[T]) validate() error {
	if p == nil || p.bookmarker == nil {
		return fmt.Errorf("pager is not bound to a bookmarker")
	}

	if p.limit == NoLimit && p.lookahead {
		return fmt.Errorf("cannot apply lookahead to unlimited paging")
	}

	if !p.bookmark.IsEmpty() && len(p.bookmark) != len(p.bookmarker.columns) {
		return fmt.Errorf("%w: got %d values, want %d", ErrArityMismatch, len(p.bookmark), len(p.bookmarker.columns))
	}

	return nil
}

// IsLastPage returns true if the result set is the last page in the dataset.
//
// The last page is determined by one of three conditions:
//  1. The pager is unlimited.
//  2. The number of returned records is less than Limit.
//  3. Lookahead = true and the number of returned records is less than or equal to Limit.
func IsLastPage[T any](pager *Pager[T], resultSet []T) bool {
	return pager.limit == NoLimit ||
		len(resultSet) < pager.limit ||
		(pager.lookahead && len(resultSet) <= pager.limit)
}

// TrimResultSet trims the result set to what should be returned to the client.
//
// With lookahead the extra record is dropped. Suppose limit = 2 and
// resultSet = [a, b, c]:
//
//   - With lookahead → resultSet becomes [a, b].
//   - Without lookahead → resultSet remains unchanged.
func TrimResultSet[T any](pager *Pager[T], resultSet []T) []T {
	if pager.lookahead && pager.limit != NoLimit && len(resultSet) > pager.limit {
		resultSet = resultSet[:pager.limit]
	}

	return resultSet
}
