package engine

// Payloads carried in Event.Data. Field names are the wire names.

type Role string

const (
	RoleInsider  Role = "insider"
	RoleOutsider Role = "outsider"
)

// PublicPlayer is the roster entry every member may see. It never carries a role.
type PublicPlayer struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type RoomCreatedData struct {
	RoomID  string         `json:"roomId"`
	Players []PublicPlayer `json:"players"`
}

type RoomJoinedData struct {
	RoomID       string         `json:"roomId"`
	Players      []PublicPlayer `json:"players"`
	CurrentCount int            `json:"currentCount"`
	Capacity     int            `json:"capacity"`
}

type RoomFullData struct {
	Message      string `json:"message"`
	CurrentCount int    `json:"currentCount"`
	Capacity     int    `json:"capacity"`
}

type StartWordInputData struct{}

type WordsCommittedData struct {
	CommittedPlayers []string `json:"committedPlayers"`
	Total            int      `json:"total"`
	Current          int      `json:"current"`
}

type CountdownData struct {
	N int `json:"n"`
}

// GameStartData is addressed to a single player. Word is nil for outsiders.
type GameStartData struct {
	Role    Role           `json:"role"`
	Word    *string        `json:"word"`
	Players []PublicPlayer `json:"players"`
}

type StartVotingData struct {
	Players []PublicPlayer `json:"players"`
	Round   int            `json:"round"`
}

type VoteUpdateData struct {
	Votes    map[string]string `json:"votes"`
	Required int               `json:"required"`
}

type TallyEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type VoteResultData struct {
	Message       string       `json:"message"`
	Accused       string       `json:"accused"`
	WasOutsider   bool         `json:"wasOutsider"`
	OutsidersLeft int          `json:"outsidersLeft"`
	Tally         []TallyEntry `json:"tally"`
}

type GameOverData struct {
	Winner            Team     `json:"winner"`
	SecretWord        string   `json:"secretWord"`
	Outsiders         []string `json:"outsiders"`
	RevealedOutsiders []string `json:"revealedOutsiders"`
	Message           string   `json:"message,omitempty"`
}
