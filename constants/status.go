package constants

// Stage is the position of a pipeline run in its linear state machine.
type Stage string

// Stable values (these strings show up in logs and in Result.Stage).
const (
	StageStart         Stage = "START"
	StageRasterized    Stage = "RASTERIZED"
	StageClassified    Stage = "CLASSIFIED"
	StageUserExtracted Stage = "USER_EXTRACTED"
	StagePANExtracted  Stage = "PAN_EXTRACTED"
	StageDone          Stage = "DONE"
	StageFailed        Stage = "FAILED" // terminal; only reachable before CLASSIFIED completes
)
