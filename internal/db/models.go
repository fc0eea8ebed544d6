package db

type Run struct {
	ID          string
	Source      Source
	Origin      string
	ScrapedAt   int64
	RecordCount int64
}

type Upload struct {
	RunID    string
	TrackID  int64
	Uploader string
	Artist   string
	Title    string
}
