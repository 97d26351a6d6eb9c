package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"heartgram/internal/common"
	"heartgram/internal/models"
	"heartgram/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RosterService provisions guests in bulk from a comma-delimited roster
type RosterService interface {
	Import(ctx context.Context, tenantID uuid.UUID, payload []byte) (*models.ImportResult, error)
}

type rosterService struct {
	identity  IdentityService
	generator *CredentialGenerator
	log       *logger.Logger
}

func NewRosterService(identity IdentityService, generator *CredentialGenerator, log *logger.Logger) RosterService {
	return &rosterService{identity: identity, generator: generator, log: log}
}

type rosterColumns struct {
	name, email, phone int
}

// required is the minimum field count a row needs to carry name and email
func (c rosterColumns) required() int {
	return max(c.name, c.email) + 1
}

// Import parses payload and creates one guest per valid row. Rows are handled
// independently: a failing row is recorded and the rest still run. There is no
// rollback, so an interrupted import leaves the rows created so far.
//
// Fields are split on commas without quoting support.
func (s *rosterService) Import(ctx context.Context, tenantID uuid.UUID, payload []byte) (*models.ImportResult, error) {
	lines := splitLines(string(payload))
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: file must contain a header and at least one guest", common.ErrInvalidFormat)
	}

	cols, err := resolveColumns(lines[0])
	if err != nil {
		return nil, err
	}

	log := s.log.WithContext(ctx).WithFields(zap.String("event_id", tenantID.String()))
	result := &models.ImportResult{Errors: []string{}}

	for i := 1; i < len(lines); i++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: import interrupted after %d rows: %v", common.ErrInternal, result.RecordsProcessed, err)
		}
		rowNum := i + 1
		result.RecordsProcessed++

		fields := strings.Split(lines[i], ",")
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}
		if len(fields) < cols.required() {
			result.Skipped++
			continue
		}

		name, email := fields[cols.name], fields[cols.email]
		if name == "" || email == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: missing name or email", rowNum))
			continue
		}
		var phone *string
		if cols.phone >= 0 && cols.phone < len(fields) {
			phone = &fields[cols.phone]
		}

		secret, err := s.generator.NewSecret(MemberSecretLength)
		if err != nil {
			return result, err
		}

		member, err := s.identity.CreateMember(ctx, tenantID, name, email, secret, phone)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, rowFailure(err)))
			log.Warn("Roster row rejected", zap.Int("row", rowNum), zap.Error(err))
			continue
		}

		result.Imported++
		log.Debug("Guest imported", zap.Int("row", rowNum), zap.String("member_id", member.ID.String()))
	}

	log.Info("Roster import finished",
		zap.Int("processed", result.RecordsProcessed),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// splitLines drops blank lines and trailing carriage returns
func splitLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// resolveColumns finds name, email and phone by case-insensitive substring
// match on the header cells. The first matching cell wins.
func resolveColumns(header string) (rosterColumns, error) {
	cols := rosterColumns{name: -1, email: -1, phone: -1}
	for i, cell := range strings.Split(header, ",") {
		cell = strings.ToLower(strings.TrimSpace(cell))
		if cols.name < 0 && strings.Contains(cell, "name") {
			cols.name = i
		}
		if cols.email < 0 && strings.Contains(cell, "email") {
			cols.email = i
		}
		if cols.phone < 0 && strings.Contains(cell, "phone") {
			cols.phone = i
		}
	}
	if cols.name < 0 || cols.email < 0 {
		return cols, fmt.Errorf("%w: file must contain Name and Email columns", common.ErrInvalidFormat)
	}
	return cols, nil
}

func rowFailure(err error) string {
	switch {
	case errors.Is(err, common.ErrConflict):
		return "email already registered"
	case errors.Is(err, common.ErrValidation):
		return strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
	default:
		return "failed to create guest"
	}
}
