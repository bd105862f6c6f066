// Package types defines the entities, storage contracts, configuration, and
// standard error types for the componentry component library.
//
// The Storage Engine, the message boundary, and the domain stores all speak
// in terms of this package: Statement, Result, and Row describe what crosses
// the boundary; Component, ComponentVersion, Bookmark, Category, and Settings
// describe what the domain stores hand back to callers.
package types
