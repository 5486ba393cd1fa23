// Package types defines the entity types, the Store and table interfaces, and
// the standard errors shared by the svakisto organizer.
//
// The hierarchy has three levels: a Client owns ClientObjects, a ClientObject
// owns Stations. Groups tag Clients for top-level filtering and never own
// anything. InternalBackups hold automatic snapshots for disaster recovery.
package types
