package api

// todoistEvent is the Todoist webhook envelope. Only item:completed events
// are acted on.
type todoistEvent struct {
	EventName string           `json:"event_name"`
	EventData todoistEventData `json:"event_data"`
}

type todoistEventData struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ProjectID string `json:"project_id"`
}

// telegramUpdate is a Telegram Bot API update. Only channel posts are
// mirrored into the journal.
type telegramUpdate struct {
	UpdateID    int64            `json:"update_id"`
	ChannelPost *telegramMessage `json:"channel_post"`
}

type telegramMessage struct {
	Date    int64        `json:"date"`
	Text    string       `json:"text"`
	Caption string       `json:"caption"`
	Chat    telegramChat `json:"chat"`
}

type telegramChat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// linearEvent is the Linear webhook envelope.
type linearEvent struct {
	Action string          `json:"action"`
	Type   string          `json:"type"`
	URL    string          `json:"url"`
	Data   linearEventData `json:"data"`
}

type linearEventData struct {
	ID         string     `json:"id"`
	Body       string     `json:"body"`
	Title      string     `json:"title"`
	Identifier string     `json:"identifier"`
	URL        string     `json:"url"`
	Initiative *linearRef `json:"initiative"`
	Project    *linearRef `json:"project"`
}

type linearRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// githubPushEvent carries the subset of a GitHub push payload we mirror.
type githubPushEvent struct {
	Repository githubRepository `json:"repository"`
	HeadCommit *githubCommit    `json:"head_commit"`
	Commits    []githubCommit   `json:"commits"`
}

type githubRepository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

type githubCommit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// githubPullRequestEvent carries the subset of a pull_request payload we
// mirror.
type githubPullRequestEvent struct {
	Action      string            `json:"action"`
	Repository  githubRepository  `json:"repository"`
	PullRequest githubPullRequest `json:"pull_request"`
}

type githubPullRequest struct {
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Merged  bool   `json:"merged"`
}
