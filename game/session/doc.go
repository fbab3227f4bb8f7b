// Package session provides session management for the 2048 server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - An optional cap on live sessions
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own engine.GameEngine, so games never share
// a grid.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive and generated IDs are retried until they are unique.
//
// Usage:
//
//	manager := session.NewManagerWithOptions(session.Options{MaxSessions: 100})
//
//	sess, err := manager.Create("")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// Sessions live in memory only. CleanupExpiredSessions drops the ones that
// have not been touched within a given age.
package session
