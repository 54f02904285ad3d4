package feed

// Record is one classroom of the upstream schedule feed.
type Record struct {
	Classroom string `json:"classroom"`
	Days      []Day  `json:"days"`
}

type Day struct {
	Date    string  `json:"date"`
	Classes []Class `json:"classes"`
}

type Class struct {
	ClassName string `json:"ClassName"`
	Duration  string `json:"Duration"`
	StartTime string `json:"startTime"`
	EventName string `json:"eventName"`
}

type StudentType string

const (
	StudentTypeUnspecified StudentType = ""
	FullTime               StudentType = "FT"
	PartTime               StudentType = "PT"
)

type University string

const (
	UniversityUnspecified University = ""
	UCD                   University = "UCD"
	MUR                   University = "MUR"
)

type DataIssue struct {
	Exists      bool
	Description string
}

// Entry is one normalized class (or study room) occurrence.
type Entry struct {
	StudentType      StudentType
	University       University
	ClassCode        string
	Location         string
	StartTime        string
	Date             string
	Duration         string
	GroupRestriction string
	DataIssue        DataIssue
}
