// Package player implements the profile store coordinator: the single owner
// of a loaded player profile for the duration of a session. All progression
// mutations (answers, token spends, lesson completions, settings changes) go
// through one serialized funnel per profile, which recomputes derived state,
// awards at most one achievement per cycle, writes the local cache
// synchronously, and schedules a debounced remote write.
//
// Remote store failures are never fatal. The coordinator logs them and keeps
// operating on the local cache, so the worst-case failure mode is a session
// that runs on locally cached progress.
package player
