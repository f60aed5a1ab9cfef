package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"suratdesa/internal/request/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/sentinel"
)

// PostgresStore persists requests in PostgreSQL. The approval chain relies on
// the conditional UPDATE in ApplyTransition: the row changes only when the
// stored status still equals the expected predecessor, which is what makes
// double approvals lose cleanly instead of clobbering each other.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `
	id, type_code, applicant_id, status, submitted_at,
	neighborhood_reviewer_id, neighborhood_reviewed_at, neighborhood_note,
	clerk_reviewer_id, clerk_reviewed_at, clerk_note,
	chief_reviewer_id, chief_reviewed_at, chief_note,
	issued_number, rejection_reason, payload`

func (s *PostgresStore) Create(ctx context.Context, req *models.Request) error {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO requests (id, type_code, applicant_id, status, submitted_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(req.ID), string(req.TypeCode), uuid.UUID(req.ApplicantID),
		string(req.Status), req.SubmittedAt, payload)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, uuid.UUID(requestID))
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Request, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := make([]string, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE status = ANY($1) ORDER BY submitted_at`,
		pq.Array(args))
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ApplyTransition(ctx context.Context, requestID id.RequestID, expected models.Status, upd TransitionUpdate) (*models.Request, error) {
	query, args := buildTransitionUpdate(requestID, expected, upd)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("apply transition rows: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a lost race.
		if _, err := s.Get(ctx, requestID); errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, sentinel.ErrStaleStatus
	}
	return s.Get(ctx, requestID)
}

func buildTransitionUpdate(requestID id.RequestID, expected models.Status, upd TransitionUpdate) (string, []any) {
	set := "status = $3"
	args := []any{uuid.UUID(requestID), string(expected), string(upd.NextStatus)}

	if upd.Stamp != nil {
		var prefix string
		switch upd.Stage {
		case models.StageNeighborhood:
			prefix = "neighborhood"
		case models.StageClerk:
			prefix = "clerk"
		case models.StageChief:
			prefix = "chief"
		}
		args = append(args, uuid.UUID(upd.Stamp.ReviewerID), upd.Stamp.ReviewedAt, upd.Stamp.Note)
		set += fmt.Sprintf(", %s_reviewer_id = $%d, %s_reviewed_at = $%d, %s_note = $%d",
			prefix, len(args)-2, prefix, len(args)-1, prefix, len(args))
	}
	if upd.IssuedNumber != "" {
		args = append(args, upd.IssuedNumber)
		set += fmt.Sprintf(", issued_number = $%d", len(args))
	}
	if upd.RejectionReason != "" {
		args = append(args, upd.RejectionReason)
		set += fmt.Sprintf(", rejection_reason = $%d", len(args))
	}

	return "UPDATE requests SET " + set + " WHERE id = $1 AND status = $2", args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var req models.Request
	var rid, aid uuid.UUID
	var typeCode, status string
	var payload []byte
	var issuedNumber, rejectionReason sql.NullString

	var nbID, clID, chID uuid.NullUUID
	var nbAt, clAt, chAt sql.NullTime
	var nbNote, clNote, chNote sql.NullString

	err := row.Scan(&rid, &typeCode, &aid, &status, &req.SubmittedAt,
		&nbID, &nbAt, &nbNote,
		&clID, &clAt, &clNote,
		&chID, &chAt, &chNote,
		&issuedNumber, &rejectionReason, &payload)
	if err != nil {
		return nil, err
	}

	req.ID = id.RequestID(rid)
	req.ApplicantID = id.CitizenID(aid)
	req.TypeCode = models.TypeCode(typeCode)
	req.Status = models.Status(status)
	req.IssuedNumber = issuedNumber.String
	req.RejectionReason = rejectionReason.String
	req.Neighborhood = scanStamp(nbID, nbAt, nbNote)
	req.Clerk = scanStamp(clID, clAt, clNote)
	req.Chief = scanStamp(chID, chAt, chNote)

	if len(payload) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		req.Payload = normalizePayload(raw)
	}
	return &req, nil
}

func scanStamp(reviewer uuid.NullUUID, at sql.NullTime, note sql.NullString) *models.ReviewStamp {
	if !reviewer.Valid {
		return nil
	}
	return &models.ReviewStamp{
		ReviewerID: id.UserID(reviewer.UUID),
		ReviewedAt: at.Time,
		Note:       note.String,
	}
}

// normalizePayload restores the roster shape lost in the JSON round trip.
func normalizePayload(raw map[string]any) models.Payload {
	out := models.Payload(raw)
	items, ok := raw["dependents"].([]any)
	if !ok {
		return out
	}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := make(map[string]string, len(entry))
		for k, v := range entry {
			if s, ok := v.(string); ok {
				row[k] = s
			}
		}
		rows = append(rows, row)
	}
	out["dependents"] = rows
	return out
}
