package broadcast

// Event types delivered on a story topic
const (
	EventNewContribution     = "new_contribution"
	EventContributionUpdated = "contribution_updated"
)

// Event is the envelope delivered to subscribers of a story topic
type Event struct {
	Type         string      `json:"type"`
	Contribution interface{} `json:"contribution"`
}

// Message carries both renderings of an event. Subscribers with elevated
// privilege receive the Elevated rendering, which includes impersonation
// fields; everyone else receives the Public one.
type Message struct {
	Public   Event
	Elevated Event
}
