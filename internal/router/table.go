package router

// routeTable maps task types to the genesis capability each resolves to.
// Edge weights learned by the evolution cycle could feed a dynamic table
// later; today the mapping is static.
var routeTable = map[string]string{
	"coding":    "coding",
	"reasoning": "reasoning",
	"scraping":  "scraping",
	"training":  "training",
	"memory":    "memory",
	"chat":      "chat",
}

// defaultCapability receives every unmapped task type.
const defaultCapability = "chat"

// ResolveRoute maps a task type to its target node id for a station.
func ResolveRoute(stationID, taskType string) string {
	capability, ok := routeTable[taskType]
	if !ok {
		capability = defaultCapability
	}
	return stationID + "-" + capability
}
