// Package predicate compiles channel matching rules into a small typed
// expression tree and evaluates them against posts and attachments.
//
// Rules are user configuration, so the language only reaches the declared
// post and attachment fields:
//
//	post.id post.guid post.title post.text post.type post.channel
//	post.channelTitle post.creator post.tags post.releaseDate
//	attachment attachment.id attachment.title
//
// Strings compare with ==, !=, contains, startsWith, endsWith and matches
// (RE2). contains on post.tags tests membership. lower(x) lowercases a string
// and isChannel("id") is shorthand for post.channel == "id". Conditions
// combine with &&, || and ! (or the keywords and, or, not) and parentheses.
// The bare field attachment is true when attachment detail was fetched, which
// only happens for posts with more than one video.
//
// Type errors, unknown fields and bad regular expressions are reported by
// Compile, never at evaluation time.
package predicate
