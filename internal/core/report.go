package core

// Status is the outcome of one logo entry.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Stages in the order they run for every entry.
const (
	StageFetch            = "fetch"
	StageProcessOriginal  = "process_original"
	StageProcessThumbnail = "process_thumbnail"
	StageGenerateID       = "generate_id"
	StageUploadOriginal   = "upload_original"
	StageUploadThumbnail  = "upload_thumbnail"
	StageUpdateRecord     = "update_record"
)

type Result struct {
	Entry        LogoEntry
	Status       Status
	Stage        string
	Err          error
	ObjectID     string
	ImageURL     string
	ThumbnailURL string
}

type Report struct {
	Results []Result
}

func (r *Report) count(status Status) int {
	n := 0
	for _, result := range r.Results {
		if result.Status == status {
			n++
		}
	}
	return n
}

func (r *Report) Succeeded() int {
	return r.count(StatusSucceeded)
}

func (r *Report) Failed() int {
	return r.count(StatusFailed)
}

func (r *Report) Skipped() int {
	return r.count(StatusSkipped)
}
