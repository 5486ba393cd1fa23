// Package svakisto holds build identity shared by the CLI and the backup
// format.
package svakisto

// Version is the application version written into exports and compared
// against the update manifest.
const Version = "1.4.0"

// ExportedBy tags backup files written by this application.
const ExportedBy = "svakisto"
