package model

// JobStatus tracks a chapter job through the pipeline.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusFetching  JobStatus = "fetching"
	StatusExtracted JobStatus = "extracted"
	StatusSaved     JobStatus = "saved"
	StatusFailed    JobStatus = "failed"
)

// ChapterJob is one unit of work: a single chapter URL discovered on the
// table-of-contents page. Index is the 1-based discovery order and doubles
// as the sort prefix of the saved file name.
type ChapterJob struct {
	Index  int
	URL    string
	Status JobStatus
}

// ChapterRecord holds the extracted text of one chapter.
type ChapterRecord struct {
	Title   string
	Content string
}

// IndexEntry records one saved chapter in index.json, keyed by source URL.
// Title carries the sanitized form used in the file name.
type IndexEntry struct {
	Idx   int    `json:"idx"`
	Title string `json:"title"`
	File  string `json:"file"`
}

// MetaInfo is the book-level record written to meta.json when a run starts.
// The pipeline only ever writes MetaStatusDownloading; terminal statuses are
// owned by whatever supervises the run.
type MetaInfo struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	TotalChapters int    `json:"total_chapters"`
	Status        string `json:"status"`
}

const MetaStatusDownloading = "downloading"
