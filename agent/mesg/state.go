package mesg

// State is the content of the agent's state frame.
type State struct {
	Initialized         bool            `json:"initialized"`
	AgentName           string          `json:"agent_name"`
	PairwiseConnections []PairwiseEntry `json:"pairwise_connections"`
}

// PairwiseEntry is one pairwise connection as the agent stores it.
type PairwiseEntry struct {
	MyDID    string       `json:"my_did"`
	TheirDID string       `json:"their_did"`
	Metadata PairwiseMeta `json:"metadata"`
}

type PairwiseMeta struct {
	TheirVerkey   string `json:"their_vk"`
	TheirEndpoint string `json:"their_endpoint,omitempty"`
	ConnectionKey string `json:"connection_key,omitempty"`
	Label         string `json:"label,omitempty"`
}

// IsReadyFor tells if the agent is initialized under the agent name.
func (s *State) IsReadyFor(name string) bool {
	return s != nil && s.Initialized && s.AgentName == name
}

func (s *State) find(match func(e *PairwiseEntry) bool) (*PairwiseEntry, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.PairwiseConnections {
		e := &s.PairwiseConnections[i]
		if match(e) {
			return e, true
		}
	}
	return nil, false
}

// FindByTheirVerkey finds the pairwise entry whose stored verification key
// is vk.
func (s *State) FindByTheirVerkey(vk string) (*PairwiseEntry, bool) {
	return s.find(func(e *PairwiseEntry) bool {
		return vk != "" && e.Metadata.TheirVerkey == vk
	})
}

// FindByConnectionKey finds the pairwise entry which was made with the
// invitation whose public key is key.
func (s *State) FindByConnectionKey(key string) (*PairwiseEntry, bool) {
	return s.find(func(e *PairwiseEntry) bool {
		return key != "" && e.Metadata.ConnectionKey == key
	})
}

func (s *State) FindByTheirDID(did string) (*PairwiseEntry, bool) {
	return s.find(func(e *PairwiseEntry) bool {
		return did != "" && e.TheirDID == did
	})
}
