package warbots

// LogType classifies a per-turn event entry.
type LogType string

const (
	LogBattle             LogType = "battle"
	LogCapture            LogType = "capture"
	LogIncome             LogType = "income"
	LogRepair             LogType = "repair"
	LogMaintenance        LogType = "maintenance"
	LogMaintenanceFailure LogType = "maintenance_failure"
	LogBuildMech          LogType = "build_mech"
	LogBuildBuilding      LogType = "build_building"
	LogTurnStart          LogType = "turn_start"
	LogDefeat             LogType = "defeat"
	LogVictory            LogType = "victory"
)

// BattleReport is the payload embedded in a battle log entry: who
// fought, who prevailed, what each side lost, and the blow-by-blow
// transcript for replay.
type BattleReport struct {
	Participants []int         `json:"participants"`
	Winner       int           `json:"winner"`
	Casualties   map[int]int   `json:"casualties,omitempty"`
	Events       []BattleEvent `json:"events"`
}

// Log is one event produced during turn resolution. Player is the
// player the entry concerns; Detail carries the battle report for
// battle entries and is nil otherwise.
type Log struct {
	Turn    int           `json:"turn"`
	Type    LogType       `json:"type"`
	Player  int           `json:"player,omitempty"`
	X       int           `json:"x,omitempty"`
	Y       int           `json:"y,omitempty"`
	Message string        `json:"message"`
	Amount  int           `json:"amount,omitempty"`
	Detail  *BattleReport `json:"detail,omitempty"`
}
