package types

// Command is a side effect the generator asks its caller to perform once
// the artifacts have been produced. The generator never performs these
// itself; see the delivery package.
type Command interface {
	CommandName() string
}

// PublishArtifact asks for the artifact to be stored and for a time-limited
// retrieval reference to be issued.
type PublishArtifact struct {
	Artifact Artifact
}

func (PublishArtifact) CommandName() string { return "publish_artifact" }

// RecordGeneration asks for a generation history entry. The timestamp is
// stamped by whoever applies the command.
type RecordGeneration struct {
	ActivityType ActivityType
	Period       Period
	RecordCount  int
	ReportCount  int
	ZeroFlag     bool
	GeneratedBy  string
	FileNames    []string
}

func (RecordGeneration) CommandName() string { return "record_generation" }

// MarkRecordsReported asks for the given records to be flagged as reported.
type MarkRecordsReported struct {
	ActivityType ActivityType
	Period       Period
	RecordIDs    []string
}

func (MarkRecordsReported) CommandName() string { return "mark_records_reported" }
