package querycache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listParams struct {
	Size int    `json:"size"`
	Page int    `json:"page"`
	Sort string `json:"sort,omitempty"`
}

func TestKey_StructuralEquality(t *testing.T) {
	fromParams := Keys.Courses.List(Params{"page": 0, "size": 20})
	fromMap := NewKey("courses", "list", map[string]int{"size": 20, "page": 0})
	fromStruct := NewKey("courses", "list", listParams{Page: 0, Size: 20})

	assert.True(t, fromParams.Equal(fromMap))
	assert.True(t, fromParams.Equal(fromStruct))
	assert.Equal(t, fromParams.String(), fromStruct.String())
	assert.Equal(t, `["courses","list",{"page":0,"size":20}]`, fromParams.String())

	assert.False(t, fromParams.Equal(Keys.Courses.List(Params{"page": 1, "size": 20})))
	assert.False(t, Keys.Courses.List(nil).Equal(Keys.Courses.List(Params{})))
}

func TestKey_HasPrefix(t *testing.T) {
	detail := Keys.Courses.Detail("intro-to-go")
	list := Keys.Courses.List(Params{"page": 0})

	assert.True(t, detail.HasPrefix(Keys.Courses.All()))
	assert.True(t, list.HasPrefix(Keys.Courses.All()))
	assert.True(t, list.HasPrefix(Keys.Courses.Lists()))
	assert.False(t, detail.HasPrefix(Keys.Courses.Lists()))
	assert.False(t, detail.HasPrefix(Keys.Users.All()))
	assert.True(t, detail.HasPrefix(detail))
	assert.False(t, Keys.Courses.All().HasPrefix(detail))
}

func TestKey_Domain(t *testing.T) {
	assert.Equal(t, "courses", Keys.Courses.Stats("c1").Domain())
	assert.Equal(t, "auth", Keys.Auth.Profile().Domain())
	assert.Equal(t, "", Key{}.Domain())
	assert.Equal(t, "", NewKey(42).Domain())
}

func TestKey_JSONRoundTrip(t *testing.T) {
	original := Keys.Users.Search("ann", Params{"role": "STUDENT", "page": 2})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Key
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))

	parsed, err := ParseKey(original.String())
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))

	_, err = ParseKey("not a key")
	assert.Error(t, err)
}

func TestKeys_Taxonomy(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Keys.Auth.User(), `["auth","user"]`},
		{Keys.Auth.Profile(), `["auth","profile"]`},
		{Keys.Users.Detail("u1"), `["users","detail","u1"]`},
		{Keys.Users.Stats("u1"), `["users","stats","u1"]`},
		{Keys.Courses.Detail("go"), `["courses","detail","go"]`},
		{Keys.Courses.ByInstructor("i1"), `["courses","instructor","i1"]`},
		{Keys.Courses.Enrolled("u1"), `["courses","enrolled","u1"]`},
		{Keys.Lessons.Progress("l1", "u1"), `["lessons","progress","l1","u1"]`},
		{Keys.Enrollments.ByCourse("c1"), `["enrollments","course","c1"]`},
		{Keys.Enrollments.ByStudent("s1"), `["enrollments","student","s1"]`},
		{Keys.Assignments.Submissions("a1", "u1"), `["assignments","submissions","a1","u1"]`},
		{Keys.Categories.Tree(), `["categories","tree"]`},
		{Keys.Tags.Popular(), `["tags","popular"]`},
		{Keys.Notifications.UnreadCount(), `["notifications","unread-count"]`},
		{Keys.Notifications.List(nil), `["notifications","list",null]`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.key.String())
	}
}

func TestNewKey_PanicsOnUnencodableSegment(t *testing.T) {
	assert.Panics(t, func() { NewKey("courses", make(chan int)) })
}
