package crmauth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TeamDirectory is the filtered-query surface the cascade engine uses to
// find and mutate teams referencing a user.
type TeamDirectory interface {
	FindByManager(ctx context.Context, userID uuid.UUID) ([]*Team, error)
	FindByLead(ctx context.Context, userID uuid.UUID) ([]*Team, error)
	FindByMember(ctx context.Context, userID uuid.UUID) ([]*Team, error)

	ReassignManager(ctx context.Context, teamID, managerID uuid.UUID) error
	ClearLead(ctx context.Context, teamID uuid.UUID) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
}

// AdminLocator finds a fallback owner for orphaned teams.
type AdminLocator interface {
	FirstWithRole(ctx context.Context, role RoleName) (*User, error)
}

// CascadeAction names the mutation attempted on a team during a cascade.
type CascadeAction string

const (
	CascadeActionReassignManager CascadeAction = "reassign_manager"
	CascadeActionClearLead       CascadeAction = "clear_lead"
	CascadeActionRemoveMember    CascadeAction = "remove_member"
)

// TeamOutcome records the per-team result of one cascade mutation.
type TeamOutcome struct {
	TeamID uuid.UUID
	Action CascadeAction
	Err    error
}

// CascadeReport collects what a transition touched. Sub-failures are
// advisory; the primary mutation has already succeeded by the time the
// cascade runs.
type CascadeReport struct {
	Teams    []*Team
	Outcomes []TeamOutcome
	Warnings []string
}

// Failed returns the outcomes that carry an error.
func (r *CascadeReport) Failed() []TeamOutcome {
	var failed []TeamOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// HasWarnings reports whether any advisory warning was raised.
func (r *CascadeReport) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r *CascadeReport) record(teamID uuid.UUID, action CascadeAction, err error) {
	r.Outcomes = append(r.Outcomes, TeamOutcome{TeamID: teamID, Action: action, Err: err})
}

// CascadeEngine keeps Team references consistent when a user's role or
// activity status transitions.
type CascadeEngine struct {
	directory TeamDirectory
	admins    AdminLocator
	logger    Logger
}

// NewCascadeEngine returns a cascade engine over the given directory.
func NewCascadeEngine(directory TeamDirectory, admins AdminLocator) *CascadeEngine {
	return &CascadeEngine{
		directory: directory,
		admins:    admins,
		logger:    defLogger{},
	}
}

func (e *CascadeEngine) WithLogger(logger Logger) *CascadeEngine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// ApplyTransition locates the teams referencing the user under their new
// role and applies the membership edits the transition requires. It returns
// the teams that were located, not necessarily the teams successfully
// mutated; per-team failures are isolated in the report. A role name outside
// the three team-bearing roles makes the engine a no-op.
func (e *CascadeEngine) ApplyTransition(ctx context.Context, user *User, newRoleName RoleName, newStatus UserStatus) ([]*Team, *CascadeReport, error) {
	report := &CascadeReport{}

	if user == nil {
		return nil, report, errors.New("cascade requires a user", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	teams, err := e.locateTeams(ctx, user.ID, newRoleName)
	if err != nil {
		return nil, report, errors.Wrap(err, errors.CategoryInternal, "failed to locate teams for transition")
	}
	report.Teams = teams

	if newStatus != UserStatusInactive || len(teams) == 0 {
		return teams, report, nil
	}

	switch newRoleName {
	case RoleSalesManager:
		e.reassignManagedTeams(ctx, teams, report)
	case RoleSalesTeamLead:
		e.releaseLeadTeams(ctx, user.ID, teams, report)
	case RoleSalesRepresentative:
		e.pruneMemberships(ctx, user.ID, teams, report)
	}

	return teams, report, nil
}

// locateTeams selects the query predicate by the transition's role name.
func (e *CascadeEngine) locateTeams(ctx context.Context, userID uuid.UUID, role RoleName) ([]*Team, error) {
	switch role {
	case RoleSalesManager:
		return e.directory.FindByManager(ctx, userID)
	case RoleSalesTeamLead:
		return e.directory.FindByLead(ctx, userID)
	case RoleSalesRepresentative:
		return e.directory.FindByMember(ctx, userID)
	default:
		return nil, nil
	}
}

// reassignManagedTeams hands every located team to the first Admin found.
// No Admin existing is a recoverable warning, never a failure of the
// caller's primary request.
func (e *CascadeEngine) reassignManagedTeams(ctx context.Context, teams []*Team, report *CascadeReport) {
	admin, err := e.admins.FirstWithRole(ctx, RoleAdmin)
	if err != nil || admin == nil {
		if err != nil && !errors.IsNotFound(err) {
			e.logger.Error("cascade admin lookup failed", "error", err)
		}
		warning := "no admin user available, managed teams were left unassigned"
		report.Warnings = append(report.Warnings, warning)
		e.logger.Warn(warning)
		return
	}

	for _, team := range teams {
		err := e.directory.ReassignManager(ctx, team.ID, admin.ID)
		report.record(team.ID, CascadeActionReassignManager, err)
		if err != nil {
			e.logger.Error("cascade manager reassignment failed", "team_id", team.ID, "error", err)
			continue
		}
		adminID := admin.ID
		team.ManagerID = &adminID
		team.Manager = admin
	}
}

// releaseLeadTeams clears the lead slot and drops the user from the roster.
// A failure on one team does not abort updates to the others.
func (e *CascadeEngine) releaseLeadTeams(ctx context.Context, userID uuid.UUID, teams []*Team, report *CascadeReport) {
	for _, team := range teams {
		if err := e.directory.ClearLead(ctx, team.ID); err != nil {
			report.record(team.ID, CascadeActionClearLead, err)
			e.logger.Error("cascade lead clear failed", "team_id", team.ID, "error", err)
			continue
		}
		report.record(team.ID, CascadeActionClearLead, nil)
		team.LeadID = nil
		team.Lead = nil

		err := e.directory.RemoveMember(ctx, team.ID, userID)
		report.record(team.ID, CascadeActionRemoveMember, err)
		if err != nil {
			e.logger.Error("cascade member removal failed", "team_id", team.ID, "error", err)
			continue
		}
		dropLoadedMember(team, userID)
	}
}

// pruneMemberships removes the user from every located roster with the same
// per-team failure isolation.
func (e *CascadeEngine) pruneMemberships(ctx context.Context, userID uuid.UUID, teams []*Team, report *CascadeReport) {
	for _, team := range teams {
		err := e.directory.RemoveMember(ctx, team.ID, userID)
		report.record(team.ID, CascadeActionRemoveMember, err)
		if err != nil {
			e.logger.Error("cascade member removal failed", "team_id", team.ID, "error", err)
			continue
		}
		dropLoadedMember(team, userID)
	}
}

func dropLoadedMember(team *Team, userID uuid.UUID) {
	if len(team.Members) == 0 {
		return
	}
	members := team.Members[:0]
	for _, m := range team.Members {
		if m == nil || m.ID != userID {
			members = append(members, m)
		}
	}
	team.Members = members
}
