package alert

import (
	"context"

	"spikewatch/pkg/storage/postgres"
)

// postgresRecorder writes fired signals to the alert audit table.
type postgresRecorder struct {
	client *postgres.PostgresClient
}

func NewPostgresRecorder(client *postgres.PostgresClient) Recorder {
	return &postgresRecorder{client: client}
}

func (r *postgresRecorder) Record(ctx context.Context, sig Signal) error {
	return r.client.InsertAlert(ctx, &postgres.AlertRecord{
		Symbol:       sig.Symbol,
		Exchange:     sig.Exchange,
		Direction:    string(sig.Direction),
		VolumeRatio:  sig.VolumeRatio,
		Delta:        sig.Delta,
		DeltaPercent: sig.DeltaPercent,
		Message:      sig.Message(),
		FiredAt:      sig.Time,
	})
}
