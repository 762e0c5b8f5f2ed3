// Package pipeline turns a metatext's full chunk list plus transient view state
// (search query, favorites-only flag, page, navigation requests) into the page of
// chunks to render.
//
// Composition order is fixed: chunks -> search -> favorites -> paginate, with the
// navigator able to override the current page. Nothing in this package mutates the
// chunk slices it is given; every result is a derived view.
package pipeline
