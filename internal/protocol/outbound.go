package protocol

import "encoding/json"

// Outbound frame kinds.
const (
	KindLogin  = "login"
	KindAction = "action"
	KindLink   = "link"
	KindAccuse = "accuse"
)

// DefaultBotStyle is the companion persona requested at login.
const DefaultBotStyle = "ostrożny śledczy"

// Link relations offered by the case board.
var LinkRelations = []string{"implies", "found_at", "seen_with", "contradicts"}

type Login struct {
	Player       string `json:"player"`
	SessionID    string `json:"session_id"`
	SinglePlayer bool   `json:"single_player"`
	BotStyle     string `json:"bot_style"`
}

// Action carries the player's free-form input for a turn.
type Action struct {
	Player    string `json:"player"`
	SessionID string `json:"session_id"`
	TurnID    int    `json:"turn_id"`
	TextRaw   string `json:"text_raw"`
}

// Link asks the server to connect two case-board entities by label.
type Link struct {
	Player    string `json:"player"`
	SessionID string `json:"session_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Relation  string `json:"relation"`
}

type Accuse struct {
	Player    string `json:"player"`
	SessionID string `json:"session_id"`
	Suspect   string `json:"suspect"`
}

func (l Login) MarshalJSON() ([]byte, error) {
	type wire Login
	return withType(KindLogin, wire(l))
}

func (a Action) MarshalJSON() ([]byte, error) {
	type wire Action
	return withType(KindAction, wire(a))
}

func (l Link) MarshalJSON() ([]byte, error) {
	type wire Link
	return withType(KindLink, wire(l))
}

func (a Accuse) MarshalJSON() ([]byte, error) {
	type wire Accuse
	return withType(KindAccuse, wire(a))
}

// withType marshals body and adds the type discriminator next to its fields.
func withType(kind string, body any) ([]byte, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(buf, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(kind)
	return json.Marshal(fields)
}
