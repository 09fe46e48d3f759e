package storage

import (
	"encoding/json"
	"errors"

	"somnus/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeTrend(trend []model.TickRecord) ([]byte, error) {
	return json.Marshal(trend)
}

func DecodeTrend(data []byte) ([]model.TickRecord, error) {
	var trend []model.TickRecord
	if err := json.Unmarshal(data, &trend); err != nil {
		return nil, err
	}
	return trend, nil
}

func EncodePrediction(snapshots []model.PredictionSnapshot) ([]byte, error) {
	return json.Marshal(snapshots)
}

func DecodePrediction(data []byte) ([]model.PredictionSnapshot, error) {
	var snapshots []model.PredictionSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
