package model

// AgentStatus is the agent's view of its own defaults and state.
type AgentStatus struct {
	HorizonDefault   int    `json:"horizon_default"`
	ObjectiveDefault string `json:"objective_default"`
	Backend          string `json:"backend"`
	// Adapter identifies the knowledge adapter the agent runs with.
	Adapter     string `json:"metta"`
	PrivateMode bool   `json:"private_mode"`
	HasLastRun  bool   `json:"has_last_run"`
}
