// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the progression engine, translating HTTP concerns to business
// operations.
package api
