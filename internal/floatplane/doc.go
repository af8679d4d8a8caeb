// Package floatplane talks to the creator content API and turns its paginated
// post listing into a pull-driven stream.
//
// Client performs the raw HTTP calls. Catalog layers the durable TTL caches
// over them: post pages are cached for an hour and attachment details for a
// day. PostStream walks a creator's posts newest first, always refreshing the
// first page so freshly published posts are never hidden by a cached listing.
package floatplane
