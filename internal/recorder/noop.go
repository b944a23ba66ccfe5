package recorder

// NoopRecorder is used when no journal path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAction(_ *ActionEvent) error { return nil }
func (n *NoopRecorder) Close() error                      { return nil }

func (n *NoopRecorder) CountByOutcome(_ string) (map[Outcome]int, error) {
	return map[Outcome]int{}, nil
}
