// Package mocks provides hand-written test doubles for the store and auth
// interfaces, shared by handler and service tests.
package mocks
