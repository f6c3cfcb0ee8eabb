package audit

import (
	"context"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/connectors"
	"go-eventops/pkg/utils"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]AuditActor, error)
}

// AuditActor is the slice of the user record the audit surface needs.
type AuditActor struct {
	ID       primitive.ObjectID
	Username string
}

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, entityType string, entityID string, oldValues, newValues map[string]interface{}) error
	ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error)
	ExportLogs(ctx context.Context, filters map[string]interface{}) ([]byte, string, error)
}

type AuditServiceImpl struct {
	Repo     AuditRepository
	Users    UserFinder
	Archiver *connectors.AuditArchiver
	Logger   *zap.Logger
}

func NewAuditService(repo AuditRepository, users UserFinder, archiver *connectors.AuditArchiver, logger *zap.Logger) AuditService {
	return &AuditServiceImpl{
		Repo:     repo,
		Users:    users,
		Archiver: archiver,
		Logger:   logger,
	}
}

// organizationFromContext resolves the tenant for an audit entry: the
// authenticated claims first, then the explicit org value set by flows that
// run before a token exists (registration).
func organizationFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok {
		if oid, err := primitive.ObjectIDFromHex(claims.OrganizationID); err == nil {
			return oid, true
		}
	}
	if orgID, ok := ctx.Value(common_models.OrgIDKey).(string); ok && orgID != "" {
		if oid, err := primitive.ObjectIDFromHex(orgID); err == nil {
			return oid, true
		}
	}
	return primitive.NilObjectID, false
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, entityType string, entityID string, oldValues, newValues map[string]interface{}) error {
	// Extract actor from context
	actorID := "system"
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok {
		actorID = claims.UserID
	}

	entry := common_models.AuditLog{
		ID:         primitive.NewObjectID(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Timestamp:  time.Now(),
	}
	if oid, ok := organizationFromContext(ctx); ok {
		entry.OrganizationID = oid
	}

	if err := s.Repo.Create(ctx, entry); err != nil {
		return err
	}

	if s.Archiver.Enabled() {
		if err := s.Archiver.Archive(ctx, entry); err != nil {
			s.Logger.Warn("Audit archive write failed",
				zap.String("entity_type", entityType),
				zap.String("entity_id", entityID),
				zap.Error(err))
		}
	}

	return nil
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	logs, err := s.Repo.List(ctx, s.scopeToOrganization(ctx, filters), limit, offset)
	if err != nil {
		return nil, err
	}

	s.populateActorNames(ctx, logs)
	return logs, nil
}

func (s *AuditServiceImpl) populateActorNames(ctx context.Context, logs []common_models.AuditLog) {
	actorIDs := make([]primitive.ObjectID, 0)
	seen := make(map[string]bool)
	for _, entry := range logs {
		if entry.ActorID == "system" || entry.ActorID == "" || seen[entry.ActorID] {
			continue
		}
		if oid, err := primitive.ObjectIDFromHex(entry.ActorID); err == nil {
			seen[entry.ActorID] = true
			actorIDs = append(actorIDs, oid)
		}
	}

	userMap := make(map[string]string)
	if len(actorIDs) > 0 {
		actors, err := s.Users.FindByIDs(ctx, actorIDs)
		if err == nil {
			for _, a := range actors {
				userMap[a.ID.Hex()] = a.Username
			}
		}
	}

	for i, entry := range logs {
		if entry.ActorID == "system" || entry.ActorID == "" {
			logs[i].ActorName = "System"
		} else if name, ok := userMap[entry.ActorID]; ok {
			logs[i].ActorName = name
		} else {
			logs[i].ActorName = "Unknown User"
		}
	}
}

// scopeToOrganization pins the query to the caller's tenant. Without a
// resolvable organization nothing is listed rather than everything.
func (s *AuditServiceImpl) scopeToOrganization(ctx context.Context, filters map[string]interface{}) map[string]interface{} {
	scoped := make(map[string]interface{}, len(filters)+1)
	for k, v := range filters {
		scoped[k] = v
	}
	if oid, ok := organizationFromContext(ctx); ok {
		scoped["organization_id"] = oid
	} else {
		scoped["organization_id"] = primitive.NilObjectID
	}
	return scoped
}

func (s *AuditServiceImpl) ExportLogs(ctx context.Context, filters map[string]interface{}) ([]byte, string, error) {
	logs, err := s.Repo.List(ctx, s.scopeToOrganization(ctx, filters), 10000, 0)
	if err != nil {
		return nil, "", err
	}
	s.populateActorNames(ctx, logs)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Audit Trail"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	columns := []string{"Timestamp", "Action", "Entity Type", "Entity ID", "Actor"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, entry := range logs {
		values := []interface{}{
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			string(entry.Action),
			entry.EntityType,
			entry.EntityID,
			entry.ActorName,
		}
		for colIdx, val := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := "audit-trail-" + time.Now().Format("20060102-150405") + ".xlsx"
	return buffer.Bytes(), filename, nil
}
