// Package api implements the HTTP handlers for the service: authentication,
// creation generation, feed queries, likes, and admin picks.
package api
