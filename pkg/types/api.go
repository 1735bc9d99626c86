package types

// ConsumerStatus reports one consumer registry in a status response.
type ConsumerStatus struct {
	// Consumer name.
	// example: templates
	Name string `json:"name"`
	// Whether the consumer reported ready when last checked.
	Ready bool `json:"ready"`
	// Number of components currently processed by the consumer.
	Processed int `json:"processed"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state of the manager: loading, open or closed.
	State string `json:"state"`
	// Whether the background worker is currently running.
	WorkerRunning bool `json:"worker_running"`
	// Number of events waiting in the live buffer.
	Pending int `json:"pending"`
	// Consumer registries in processing order.
	Consumers []ConsumerStatus `json:"consumers"`
	// Host component IDs mapped to their tracked fragment IDs.
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// ComponentsResponse is returned by GET /components.
type ComponentsResponse struct {
	Components []Component `json:"components"`
}
