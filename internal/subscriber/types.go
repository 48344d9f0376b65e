package subscriber

import (
	"fmt"
	"supmap-guidance/internal/incidents"
)

// IncidentMessage represents any message received in the incidents pub/sub channel.
type IncidentMessage struct {
	Data   incidents.Incident `json:"data"`
	Action incidents.Action   `json:"action"`
}

func (m *IncidentMessage) Validate() error {
	if !m.Action.IsValid() {
		return fmt.Errorf("invalid action: %q", m.Action)
	}
	if err := m.Data.Validate(); err != nil {
		return fmt.Errorf("invalid incident: %w", err)
	}
	return nil
}
