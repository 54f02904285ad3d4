package templates

import _ "embed"

var (
	//go:embed resource/hello.txt
	Hello string
	//go:embed resource/welcomeBack.txt
	WelcomeBack string
	//go:embed resource/userNotStarted.txt
	UserNotStarted string
	//go:embed resource/unexpectedError.txt
	UnexpectedError string
	//go:embed resource/studentTypeMissing.txt
	StudentTypeMissing string
	//go:embed resource/studentTypeUsage.txt
	StudentTypeUsage string
	//go:embed resource/studentTypeSaved.txt
	StudentTypeSaved string
	//go:embed resource/universityUsage.txt
	UniversityUsage string
	//go:embed resource/universitySaved.txt
	UniversitySaved string
	//go:embed resource/emptyAdd.txt
	EmptyAdd string
	//go:embed resource/classCodeTooLong.txt
	ClassCodeTooLong string
	//go:embed resource/addSuccess.txt
	AddSuccess string
	//go:embed resource/alreadyAdded.txt
	AlreadyAdded string
	//go:embed resource/noClasses.txt
	NoClasses string
	//go:embed resource/classList.txt
	ClassList string
	//go:embed resource/selectRemove.txt
	SelectRemove string
	//go:embed resource/removeSuccess.txt
	RemoveSuccess string
	//go:embed resource/removeAllSuccess.txt
	RemoveAllSuccess string
	//go:embed resource/accountDeleted.txt
	AccountDeleted string
	//go:embed resource/notification.txt
	Notification string
	//go:embed resource/sleeping.txt
	Sleeping string
	//go:embed resource/wokenUp.txt
	WokenUp string
	//go:embed resource/studyRooms.txt
	StudyRooms string
	//go:embed resource/studyRoom.txt
	StudyRoom string
	//go:embed resource/noStudyRooms.txt
	NoStudyRooms string
)
