package crmauth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Teams is the store surface for team rows and their membership join table.
// It implements TeamDirectory for the cascade engine.
type Teams interface {
	repository.Repository[*Team]
	TeamDirectory

	GetWithRelations(ctx context.Context, id uuid.UUID) (*Team, error)
	SetLead(ctx context.Context, teamID uuid.UUID, leadID *uuid.UUID) error
	SetManager(ctx context.Context, teamID uuid.UUID, managerID *uuid.UUID) error
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
	ReplaceMembers(ctx context.Context, teamID uuid.UUID, memberIDs []uuid.UUID) error
	SoftDelete(ctx context.Context, teamID uuid.UUID) error
}

type teams struct {
	repository.Repository[*Team]
	db *bun.DB
}

var (
	_ Teams         = (*teams)(nil)
	_ TeamDirectory = (*teams)(nil)
)

func NewTeamsRepository(db *bun.DB) Teams {
	repo := repository.NewRepository[*Team](db, repository.ModelHandlers[*Team]{
		NewRecord: func() *Team { return &Team{} },
		GetID: func(t *Team) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Team, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &teams{
		Repository: repo,
		db:         db,
	}
}

// TeamWithRelations loads manager, lead, and roster relations.
func TeamWithRelations() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Relation("Manager").
			Relation("Lead").
			Relation("Members")
	}
}

func (a *teams) GetWithRelations(ctx context.Context, id uuid.UUID) (*Team, error) {
	record := &Team{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Manager").
		Relation("Lead").
		Relation("Members").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *teams) FindByManager(ctx context.Context, userID uuid.UUID) ([]*Team, error) {
	return a.findWhere(ctx, "?TableAlias.manager_id = ?", userID)
}

func (a *teams) FindByLead(ctx context.Context, userID uuid.UUID) ([]*Team, error) {
	return a.findWhere(ctx, "?TableAlias.lead_id = ?", userID)
}

func (a *teams) FindByMember(ctx context.Context, userID uuid.UUID) ([]*Team, error) {
	var records []*Team
	err := a.db.NewSelect().
		Model(&records).
		Relation("Members").
		Join("JOIN team_members AS tmm ON tmm.team_id = ?TableAlias.id").
		Where("tmm.user_id = ?", userID).
		Scan(ctx)

	return records, err
}

func (a *teams) findWhere(ctx context.Context, clause string, userID uuid.UUID) ([]*Team, error) {
	var records []*Team
	err := a.db.NewSelect().
		Model(&records).
		Relation("Members").
		Where(clause, userID).
		Scan(ctx)

	return records, err
}

func (a *teams) ReassignManager(ctx context.Context, teamID, managerID uuid.UUID) error {
	return a.SetManager(ctx, teamID, &managerID)
}

func (a *teams) SetManager(ctx context.Context, teamID uuid.UUID, managerID *uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*Team)(nil)).
		Set("manager_id = ?", managerID).
		Where("?TableAlias.id = ?", teamID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	return err
}

func (a *teams) ClearLead(ctx context.Context, teamID uuid.UUID) error {
	return a.SetLead(ctx, teamID, nil)
}

func (a *teams) SetLead(ctx context.Context, teamID uuid.UUID, leadID *uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*Team)(nil)).
		Set("lead_id = ?", leadID).
		Where("?TableAlias.id = ?", teamID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	return err
}

func (a *teams) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	member := &TeamMember{
		TeamID: teamID,
		UserID: userID,
	}

	_, err := a.db.NewInsert().
		Model(member).
		On("CONFLICT (team_id, user_id) DO NOTHING").
		Exec(ctx)

	return err
}

func (a *teams) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*TeamMember)(nil)).
		Where("team_id = ?", teamID).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}

func (a *teams) SoftDelete(ctx context.Context, teamID uuid.UUID) error {
	// The soft_delete tag turns this into an UPDATE setting deleted_at.
	_, err := a.db.NewDelete().
		Model((*Team)(nil)).
		Where("?TableAlias.id = ?", teamID).
		Exec(ctx)

	return err
}

func (a *teams) ReplaceMembers(ctx context.Context, teamID uuid.UUID, memberIDs []uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*TeamMember)(nil)).
		Where("team_id = ?", teamID).
		Exec(ctx)
	if err != nil {
		return err
	}

	if len(memberIDs) == 0 {
		return nil
	}

	members := make([]*TeamMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		members = append(members, &TeamMember{
			TeamID: teamID,
			UserID: id,
		})
	}

	_, err = a.db.NewInsert().
		Model(&members).
		On("CONFLICT (team_id, user_id) DO NOTHING").
		Exec(ctx)

	return err
}
