package feed

import "time"

const (
	StudyRoom = "Study Room"

	// ClassName is "<FT|PT> <UCD|MUR> <unit name>".
	studentTypeStart = 0
	studentTypeEnd   = 2
	universityStart  = 3
	universityEnd    = 6
	unitNameStart    = 7

	groupSeparator  = "-"
	startTimeLayout = "15:04"
	dateLayout      = "2006-01-02"
)

var startTimeLayouts = []string{"15:04", "15:04:05", "3:04PM", "3:04 PM", "3:04pm", "3:04 pm"}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006", "2006/01/02", "2 Jan 2006", "2 January 2006", time.RFC3339}
