package crmauth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// TeamService carries the team-level operations that enforce the inverse
// direction of the role invariants: lead assignment promotes, lead
// displacement demotes.
type TeamService struct {
	repo   RepositoryManager
	logger Logger
}

// NewTeamService returns a TeamService over the given repositories.
func NewTeamService(repo RepositoryManager) *TeamService {
	return &TeamService{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *TeamService) WithLogger(logger Logger) *TeamService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateTeamInput is the payload for CreateTeam.
type CreateTeamInput struct {
	Name      string
	ManagerID *uuid.UUID
	MemberIDs []uuid.UUID
}

// CreateTeam creates a team and seeds its roster.
func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("team name is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	team := &Team{
		ID:        uuid.New(),
		Name:      name,
		ManagerID: input.ManagerID,
	}

	team, err := s.repo.Teams().Create(ctx, team)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create team")
	}

	for _, memberID := range input.MemberIDs {
		if err := s.repo.Teams().AddMember(ctx, team.ID, memberID); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "could not add team member")
		}
	}

	return s.repo.Teams().GetWithRelations(ctx, team.ID)
}

// AddMembers appends users to the roster, skipping duplicates.
func (s *TeamService) AddMembers(ctx context.Context, teamID uuid.UUID, memberIDs []uuid.UUID) (*Team, error) {
	if _, err := s.getTeam(ctx, teamID); err != nil {
		return nil, err
	}

	for _, memberID := range memberIDs {
		if err := s.repo.Teams().AddMember(ctx, teamID, memberID); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "could not add team member")
		}
	}

	return s.repo.Teams().GetWithRelations(ctx, teamID)
}

// SetLead assigns a new lead: the incoming user is promoted to the team
// lead role, any departing lead passed in is demoted to representative, and
// the lead joins the roster.
func (s *TeamService) SetLead(ctx context.Context, teamID, newLeadID uuid.UUID, currentLeadID *uuid.UUID) (*Team, error) {
	if _, err := s.getTeam(ctx, teamID); err != nil {
		return nil, err
	}

	if err := s.assignRole(ctx, newLeadID, RoleSalesTeamLead); err != nil {
		return nil, err
	}

	if currentLeadID != nil && *currentLeadID != newLeadID {
		if err := s.assignRole(ctx, *currentLeadID, RoleSalesRepresentative); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Teams().SetLead(ctx, teamID, &newLeadID); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not set team lead")
	}

	if err := s.repo.Teams().AddMember(ctx, teamID, newLeadID); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not add lead to roster")
	}

	return s.repo.Teams().GetWithRelations(ctx, teamID)
}

// EditTeamInput is the payload for EditTeam. A nil ManagerID leaves the
// manager untouched; MemberIDs replaces the roster wholesale.
type EditTeamInput struct {
	Name      string
	ManagerID *uuid.UUID
	MemberIDs []uuid.UUID
}

// EditTeam replaces the roster. Any current member still holding the team
// lead role is being displaced, so they are demoted to representative and
// the lead slot is cleared.
func (s *TeamService) EditTeam(ctx context.Context, teamID uuid.UUID, input EditTeamInput) (*Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	for _, member := range team.Members {
		if member == nil {
			continue
		}
		if member.RoleName() == RoleSalesTeamLead {
			if err := s.assignRole(ctx, member.ID, RoleSalesRepresentative); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.Teams().ClearLead(ctx, teamID); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not clear team lead")
	}

	if err := s.repo.Teams().ReplaceMembers(ctx, teamID, input.MemberIDs); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not replace team members")
	}

	update := &Team{ID: teamID}
	if name := strings.TrimSpace(input.Name); name != "" {
		update.Name = name
	} else {
		update.Name = team.Name
	}
	if input.ManagerID != nil {
		update.ManagerID = input.ManagerID
	} else {
		update.ManagerID = team.ManagerID
	}

	if _, err := s.repo.Teams().Update(ctx, update, repository.UpdateByID(teamID.String())); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not update team")
	}

	return s.repo.Teams().GetWithRelations(ctx, teamID)
}

// DeleteTeam removes a team. A departing lead is demoted to representative
// so they are not left holding a lead role with no team.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID uuid.UUID) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}

	if team.LeadID != nil {
		if err := s.assignRole(ctx, *team.LeadID, RoleSalesRepresentative); err != nil {
			return err
		}
	}

	if err := s.repo.Teams().SoftDelete(ctx, teamID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not delete team")
	}

	return nil
}

func (s *TeamService) getTeam(ctx context.Context, teamID uuid.UUID) (*Team, error) {
	team, err := s.repo.Teams().GetWithRelations(ctx, teamID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrTeamNotFound.Clone().WithMetadata(map[string]any{
				"team_id": teamID.String(),
			})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load team")
	}
	return team, nil
}

func (s *TeamService) assignRole(ctx context.Context, userID uuid.UUID, roleName RoleName) error {
	role, err := s.repo.Roles().GetByName(ctx, roleName)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrRoleNotFound.Clone().WithMetadata(map[string]any{
				"role": roleName,
			})
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to load role")
	}

	if err := s.repo.Users().SetRole(ctx, userID, role.ID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update user role")
	}

	return nil
}
