package provision

// State is the position of a provisioning run
type State int

const (
	NotStarted State = iota
	LoggedIn
	RealmCreated
	ClientCreated
	MapperCreated
	ServiceAccountPatched
	ClientSettled
	UserCreated
	PasswordSet
	Done
	Failed
)

var stateNames = map[State]string{
	NotStarted:            "NotStarted",
	LoggedIn:              "LoggedIn",
	RealmCreated:          "RealmCreated",
	ClientCreated:         "ClientCreated",
	MapperCreated:         "MapperCreated",
	ServiceAccountPatched: "ServiceAccountPatched",
	ClientSettled:         "ClientSettled",
	UserCreated:           "UserCreated",
	PasswordSet:           "PasswordSet",
	Done:                  "Done",
	Failed:                "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
