// Package coach defines the boundary between the application core and the
// external AI-coach service. The engine's only coupling to the coach is that
// a successful chat turn consumes one token through the player coordinator;
// everything about how replies are produced lives behind the Relay interface.
package coach
