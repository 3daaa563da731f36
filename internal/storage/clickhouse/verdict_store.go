package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/storage"
)

// VerdictStore implements storage.VerdictSink using ClickHouse. Verdict
// history feeds offline analysis of the scoring model; the bot itself never
// reads it on the hot path.
type VerdictStore struct {
	conn *Conn
}

// NewVerdictStore creates a new VerdictStore.
func NewVerdictStore(conn *Conn) *VerdictStore {
	return &VerdictStore{conn: conn}
}

// Compile-time interface check.
var _ storage.VerdictSink = (*VerdictStore)(nil)

// Insert appends a verdict.
func (s *VerdictStore) Insert(ctx context.Context, v *domain.SecurityVerdict) error {
	if v == nil || v.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	checksJSON, err := json.Marshal(v.Checks)
	if err != nil {
		return fmt.Errorf("encode checks: %w", err)
	}

	query := `
		INSERT INTO verdicts (
			token_address, score, safe, fresh, threshold,
			risks, strengths, checks_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err = s.conn.Exec(ctx, query,
		v.TokenAddress,
		int32(v.Score),
		boolToUint8(v.Safe),
		boolToUint8(v.Fresh),
		int32(v.Threshold),
		v.Risks,
		v.Strengths,
		string(checksJSON),
		v.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}

// GetByToken retrieves all verdicts for a token, ordered by timestamp ASC.
func (s *VerdictStore) GetByToken(ctx context.Context, tokenAddress string) ([]*domain.SecurityVerdict, error) {
	query := `
		SELECT token_address, score, safe, fresh, threshold,
		       risks, strengths, checks_json, created_at
		FROM verdicts
		WHERE token_address = ?
		ORDER BY created_at ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []*domain.SecurityVerdict
	for rows.Next() {
		var v domain.SecurityVerdict
		var score, threshold int32
		var safe, fresh uint8
		var checksJSON string
		var createdAt time.Time

		err := rows.Scan(&v.TokenAddress, &score, &safe, &fresh, &threshold,
			&v.Risks, &v.Strengths, &checksJSON, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan verdict row: %w", err)
		}

		v.Score = int(score)
		v.Safe = safe == 1
		v.Fresh = fresh == 1
		v.Threshold = int(threshold)
		v.Timestamp = createdAt
		if err := json.Unmarshal([]byte(checksJSON), &v.Checks); err != nil {
			return nil, fmt.Errorf("decode checks: %w", err)
		}
		verdicts = append(verdicts, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdict rows: %w", err)
	}

	return verdicts, nil
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
