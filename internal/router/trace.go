package router

// Trace is the request-scoped record of which components handled a task
// and how long each took. Not shared across requests.
type Trace struct {
	NodesVisited  []string         `json:"nodes_visited"`
	NodeLatencies map[string]int64 `json:"node_latencies"`
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{
		NodeLatencies: make(map[string]int64),
	}
}

// Append records one visited component and its latency.
func (t *Trace) Append(node string, latencyMs int64) {
	t.NodesVisited = append(t.NodesVisited, node)
	t.NodeLatencies[node] = latencyMs
}
