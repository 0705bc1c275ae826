package candidate

import "fmt"

// Stage is the position of a candidate in the screening conversation.
type Stage int

const (
	StageIdle         Stage = 0
	StageGreeted      Stage = 1
	StageJobSelected  Stage = 2
	StageReq1         Stage = 3
	StageReq2         Stage = 4
	StageReq3         Stage = 5
	StageName         Stage = 6
	StagePhone        Stage = 7
	StageCV           Stage = 8
	StageCover        Stage = 9
	StageAvailability Stage = 10
	StageSalary       Stage = 11
	StageSource       Stage = 12
	StageLanguage     Stage = 13
	StageCompleted    Stage = 99
)

var stageNames = map[Stage]string{
	StageIdle:         "IDLE",
	StageGreeted:      "GREETED",
	StageJobSelected:  "JOB_SELECTED",
	StageReq1:         "REQ_1",
	StageReq2:         "REQ_2",
	StageReq3:         "REQ_3",
	StageName:         "NAME",
	StagePhone:        "PHONE",
	StageCV:           "CV",
	StageCover:        "COVER",
	StageAvailability: "AVAILABILITY",
	StageSalary:       "SALARY",
	StageSource:       "SOURCE",
	StageLanguage:     "LANGUAGE",
	StageCompleted:    "COMPLETED",
}

// Stages lists every known stage in conversation order.
func Stages() []Stage {
	return []Stage{
		StageIdle, StageGreeted, StageJobSelected,
		StageReq1, StageReq2, StageReq3,
		StageName, StagePhone, StageCV, StageCover,
		StageAvailability, StageSalary, StageSource, StageLanguage,
		StageCompleted,
	}
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// Valid reports whether s is one of the defined stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}
