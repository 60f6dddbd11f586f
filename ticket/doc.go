// Package ticket issues and verifies signed poll tickets.
//
// A poll ticket binds a user id to a linking session id so that approval
// polls arriving through untrusted intermediaries (mobile clients, proxies)
// can prove which initiation they belong to without a server-side lookup.
// Tickets are short-lived HS256 JWTs; the signing secret must differ from
// the vault secret.
package ticket
