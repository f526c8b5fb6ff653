package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/ram-engine/internal/core/ingestion"
)

// UUIDToPgtype converts uuid.UUID to pgtype.UUID
func UUIDToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// PgtypeToUUID converts pgtype.UUID to uuid.UUID (uuid.Nil when NULL)
func PgtypeToUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return id.Bytes
}

// PgtypeToTime converts pgtype.Timestamptz to time.Time
func PgtypeToTime(t pgtype.Timestamptz) time.Time {
	return t.Time
}

// VectorToDomain converts pgvector.Vector to ingestion.Vector
func VectorToDomain(v pgvector.Vector) ingestion.Vector {
	slice := v.Slice()
	if slice == nil {
		return nil
	}
	vector := make(ingestion.Vector, len(slice))
	for i, x := range slice {
		vector[i] = float64(x)
	}
	return vector
}

// toFloat32 は pgvector 列の精度（単精度）に合わせて変換する
func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
