package models

// View paths of the poll pages. They double as cache keys and as the
// payload of revalidation notices.
const PollsPath = "/polls"

// PollPath is the detail view of one poll
func PollPath(id string) string {
	return PollsPath + "/" + id
}

// PollEditPath is the edit view of one poll
func PollEditPath(id string) string {
	return PollPath(id) + "/edit"
}
