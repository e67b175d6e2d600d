// Package ratelimit limits requests per client ip with a token bucket per
// visitor, evicting idle visitors in the background.
//
// The limiter is in memory and local to one instance. It keeps a single
// address from exhausting the page renderer; distributed floods are left
// to the CDN in front of the site.
package ratelimit
