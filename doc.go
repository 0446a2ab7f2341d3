// Package bookmarker provides keyset (bookmark) pagination primitives for GORM.
//
// Overview
//
// A Bookmarker is bound once to a model type and a SortKey (an ordered list of
// column specs plus one direction). It then:
//   - encodes any entity into a Bookmark, the tuple of its sort values;
//   - validates bookmarks received from clients;
//   - restricts a GORM scope to the rows that sort strictly after a bookmark,
//     replacing whatever ordering the scope had.
//
// Column specs
//   - Column("due_at"): a column of the model's own table.
//   - Coalesce(Column("due_at"), Column("created_at")): the first non-null value.
//   - Association("submission", "assignment", "due_at"): a column reached through
//     declared GORM relationships. The caller is responsible for joining the
//     associated table into the scope.
//
// NULL values always sort last, in both directions, unless WithNullsFirst is used.
//
// Pager wraps a Bookmarker with limit normalisation and lookahead, and builds
// the next page bookmark from the last row of a fetched page.
//
// Bookmarks are plain tuples. Bookmark.String and DecodeBookmark provide an
// opaque base64 token for HTTP callers that need one.
package bookmarker
