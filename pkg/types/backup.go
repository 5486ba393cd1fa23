package types

import (
	"encoding/json"
	"time"
)

// MaxInternalBackups is the size of the internal backup ring. Older rows are
// evicted first.
const MaxInternalBackups = 3

// Reasons recorded on automatic internal backups.
const (
	ReasonUpdate   = "update-auto-backup"
	ReasonTutorial = "tutorial-auto-backup"
	ReasonWipe     = "wipe-auto-backup"
	ReasonRestore  = "restore-auto-backup"
	ReasonManual   = "manual-backup"
)

// InternalBackup is an automatically captured snapshot of all primary tables.
// Data holds the full backup document as JSON.
type InternalBackup struct {
	ID        int64           `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	Reason    string          `json:"reason"`
}
