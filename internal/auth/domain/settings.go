package domain

import "time"

// SettingsID is the fixed id of the singleton settings row.
const SettingsID = "global"

// Settings holds platform-wide knobs. New companies seed their seat cap
// from DefaultMaxUsers at signup time.
type Settings struct {
	ID              string
	DefaultMaxUsers int
	UpdatedBy       string // email of the superadmin who last changed it
	UpdatedAt       time.Time
}
