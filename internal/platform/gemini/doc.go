// Package gemini implements the coach.Relay interface using Google's Gemini
// API. It handles client setup, prompt assembly from the conversation
// history, safety-block detection, and retries with exponential backoff for
// transient failures.
package gemini
