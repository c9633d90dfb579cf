package querycache

// Keys is the key taxonomy used by every query in the application.
// Parameter maps are optional; a nil map is a distinct key from an empty one.
var Keys = struct {
	Auth          authKeys
	Users         userKeys
	Courses       courseKeys
	Lessons       lessonKeys
	Enrollments   enrollmentKeys
	Assignments   assignmentKeys
	Categories    categoryKeys
	Tags          tagKeys
	Notifications notificationKeys
}{}

// Params are the free-form parameters of list and search keys
type Params map[string]any

type authKeys struct{}

func (authKeys) All() Key     { return NewKey("auth") }
func (authKeys) User() Key    { return NewKey("auth", "user") }
func (authKeys) Profile() Key { return NewKey("auth", "profile") }

type userKeys struct{}

func (userKeys) All() Key               { return NewKey("users") }
func (userKeys) List(params Params) Key { return NewKey("users", "list", params) }
func (userKeys) Detail(id string) Key   { return NewKey("users", "detail", id) }
func (userKeys) Stats(id string) Key    { return NewKey("users", "stats", id) }
func (userKeys) Search(term string, params Params) Key {
	return NewKey("users", "search", term, params)
}

type courseKeys struct{}

func (courseKeys) All() Key                             { return NewKey("courses") }
func (courseKeys) Lists() Key                           { return NewKey("courses", "list") }
func (courseKeys) List(params Params) Key               { return NewKey("courses", "list", params) }
func (courseKeys) Detail(slug string) Key               { return NewKey("courses", "detail", slug) }
func (courseKeys) Stats(id string) Key                  { return NewKey("courses", "stats", id) }
func (courseKeys) ByInstructor(instructorID string) Key { return NewKey("courses", "instructor", instructorID) }
func (courseKeys) Enrolled(userID string) Key           { return NewKey("courses", "enrolled", userID) }
func (courseKeys) Search(query string, params Params) Key {
	return NewKey("courses", "search", query, params)
}

type lessonKeys struct{}

func (lessonKeys) All() Key                 { return NewKey("lessons") }
func (lessonKeys) List(courseID string) Key { return NewKey("lessons", "list", courseID) }
func (lessonKeys) Detail(id string) Key     { return NewKey("lessons", "detail", id) }
func (lessonKeys) Progress(lessonID, userID string) Key {
	return NewKey("lessons", "progress", lessonID, userID)
}

type enrollmentKeys struct{}

func (enrollmentKeys) All() Key                       { return NewKey("enrollments") }
func (enrollmentKeys) List(params Params) Key         { return NewKey("enrollments", "list", params) }
func (enrollmentKeys) Detail(id string) Key           { return NewKey("enrollments", "detail", id) }
func (enrollmentKeys) ByCourse(courseID string) Key   { return NewKey("enrollments", "course", courseID) }
func (enrollmentKeys) ByStudent(studentID string) Key { return NewKey("enrollments", "student", studentID) }

type assignmentKeys struct{}

func (assignmentKeys) All() Key                 { return NewKey("assignments") }
func (assignmentKeys) List(lessonID string) Key { return NewKey("assignments", "list", lessonID) }
func (assignmentKeys) Detail(id string) Key     { return NewKey("assignments", "detail", id) }
func (assignmentKeys) Submissions(assignmentID, userID string) Key {
	return NewKey("assignments", "submissions", assignmentID, userID)
}

type categoryKeys struct{}

func (categoryKeys) All() Key             { return NewKey("categories") }
func (categoryKeys) List() Key            { return NewKey("categories", "list") }
func (categoryKeys) Detail(id string) Key { return NewKey("categories", "detail", id) }
func (categoryKeys) Tree() Key            { return NewKey("categories", "tree") }

type tagKeys struct{}

func (tagKeys) All() Key     { return NewKey("tags") }
func (tagKeys) List() Key    { return NewKey("tags", "list") }
func (tagKeys) Popular() Key { return NewKey("tags", "popular") }

type notificationKeys struct{}

func (notificationKeys) All() Key               { return NewKey("notifications") }
func (notificationKeys) List(params Params) Key { return NewKey("notifications", "list", params) }
func (notificationKeys) UnreadCount() Key       { return NewKey("notifications", "unread-count") }
