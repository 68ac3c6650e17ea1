// Package metrics provides the Prometheus collectors of the recording service.
package metrics

// Namespace prefixes every metric name.
const Namespace = "shobdotori"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultFound   = "found"
	ResultEmpty   = "empty"
)

// Upload pipeline stages.
const (
	StageValidate  = "validate"
	StageTranscode = "transcode"
	StageUpload    = "upload"
	StageCommit    = "commit"
	StageRename    = "rename"
	StageTotal     = "total"
)
