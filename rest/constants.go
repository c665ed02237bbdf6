package rest

// Reserved path segments of the Terrastore HTTP API.
const (
	PathStats     = "_stats"
	PathCluster   = "cluster"
	PathRange     = "range"
	PathPredicate = "predicate"
	PathExport    = "export"
	PathImport    = "import"
	PathUpdate    = "update"
)

// Query parameters of the Terrastore HTTP API.
const (
	ParamPredicate   = "predicate"
	ParamLimit       = "limit"
	ParamStartKey    = "startKey"
	ParamEndKey      = "endKey"
	ParamComparator  = "comparator"
	ParamTimeToLive  = "timeToLive"  // milliseconds
	ParamDestination = "destination" // export file
	ParamSource      = "source"      // import file
	ParamSecret      = "secret"
	ParamFunction    = "function"
	ParamTimeout     = "timeout" // milliseconds
)
