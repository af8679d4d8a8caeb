// Package subscription turns a creator's posts into item descriptors.
//
// A Subscription pulls posts through a floatplane.PostStream, classifies each
// video attachment into the first matching channel, merges titles for
// multi-attachment posts and stops the whole pass once a post falls outside a
// channel's retention window. Discover and ClassifyOne both return an
// ItemStream, which does no work until Next is called.
//
// Runner drives several subscriptions one after another and hands every item
// to a Sink.
package subscription
