package dispatcher

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Supported job operations.
const (
	OpRemove   = "remove"
	OpExtract  = "extract"
	OpMerge    = "merge"
	OpCompress = "compress"
	OpLock     = "lock"
)

// JobInput is one source document for a job. Ref is resolvable by the
// source fetcher (path, file://, http(s)://, s3://).
type JobInput struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

// Job is the wire format of one queued document operation.
type Job struct {
	ID       string     `json:"job_id"`
	Op       string     `json:"op"`
	Inputs   []JobInput `json:"inputs"`
	Order    []int      `json:"order,omitempty"`
	Selected []int      `json:"selected,omitempty"`
	Level    string     `json:"level,omitempty"`
}

// NewJob assigns a fresh job ID.
func NewJob(op string) Job {
	return Job{ID: uuid.NewString(), Op: op}
}

func (j Job) Encode() []byte {
	b, _ := json.Marshal(j)
	return b
}

func DecodeJob(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, err
	}
	return j, nil
}
