package crmauth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	crmauth "github.com/skycrm/go-crm-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeamServiceFixture(team *crmauth.Team) (*crmauth.TeamService, *fakeUsers, *fakeTeams, map[crmauth.RoleName]*crmauth.Role) {
	users := &fakeUsers{}
	teams := &fakeTeams{team: team}
	roleTable := newRoleTable()

	repo := &fakeRepoManager{
		users: users,
		roles: &fakeRoles{byName: roleTable},
		teams: teams,
	}

	return crmauth.NewTeamService(repo), users, teams, roleTable
}

func TestCreateTeamRequiresName(t *testing.T) {
	svc, _, _, _ := newTeamServiceFixture(nil)

	_, err := svc.CreateTeam(context.Background(), crmauth.CreateTeamInput{Name: "   "})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
}

func TestSetLeadPromotesIncomingAndDemotesDeparting(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	newLeadID := uuid.New()
	currentLeadID := uuid.New()

	svc, users, teams, roleTable := newTeamServiceFixture(&crmauth.Team{ID: teamID, Name: "North"})

	_, err := svc.SetLead(ctx, teamID, newLeadID, &currentLeadID)
	require.NoError(t, err)

	assert.Equal(t, roleTable[crmauth.RoleSalesTeamLead].ID, users.roleChanges[newLeadID])
	assert.Equal(t, roleTable[crmauth.RoleSalesRepresentative].ID, users.roleChanges[currentLeadID])

	require.Len(t, teams.leadSet, 1)
	require.NotNil(t, teams.leadSet[0])
	assert.Equal(t, newLeadID, *teams.leadSet[0])
	assert.Contains(t, teams.membersAdded, newLeadID)
}

func TestSetLeadSameUserIsNotDemoted(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	leadID := uuid.New()

	svc, users, _, roleTable := newTeamServiceFixture(&crmauth.Team{ID: teamID, Name: "North"})

	_, err := svc.SetLead(ctx, teamID, leadID, &leadID)
	require.NoError(t, err)

	require.Len(t, users.roleChanges, 1)
	assert.Equal(t, roleTable[crmauth.RoleSalesTeamLead].ID, users.roleChanges[leadID])
}

func TestSetLeadUnknownTeam(t *testing.T) {
	svc, users, _, _ := newTeamServiceFixture(nil)

	_, err := svc.SetLead(context.Background(), uuid.New(), uuid.New(), nil)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, crmauth.TextCodeTeamNotFound, richErr.TextCode)
	assert.Empty(t, users.roleChanges)
}

func TestSetLeadMissingRoleRow(t *testing.T) {
	teamID := uuid.New()
	users := &fakeUsers{}
	teams := &fakeTeams{team: &crmauth.Team{ID: teamID, Name: "North"}}

	repo := &fakeRepoManager{
		users: users,
		roles: &fakeRoles{byName: map[crmauth.RoleName]*crmauth.Role{}},
		teams: teams,
	}

	svc := crmauth.NewTeamService(repo)

	_, err := svc.SetLead(context.Background(), teamID, uuid.New(), nil)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, crmauth.TextCodeRoleNotFound, richErr.TextCode)
	assert.Empty(t, users.roleChanges)
}

func TestEditTeamDemotesDisplacedLead(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	leadID := uuid.New()
	keptID := uuid.New()

	team := &crmauth.Team{
		ID:     teamID,
		Name:   "North",
		LeadID: &leadID,
		Members: []*crmauth.User{
			{ID: leadID, Role: &crmauth.Role{Name: crmauth.RoleSalesTeamLead}},
			{ID: keptID, Role: &crmauth.Role{Name: crmauth.RoleSalesRepresentative}},
		},
	}

	svc, users, teams, roleTable := newTeamServiceFixture(team)

	_, err := svc.EditTeam(ctx, teamID, crmauth.EditTeamInput{
		Name:      "South",
		MemberIDs: []uuid.UUID{keptID},
	})
	require.NoError(t, err)

	assert.Equal(t, roleTable[crmauth.RoleSalesRepresentative].ID, users.roleChanges[leadID])
	assert.True(t, teams.leadCleared)
	assert.Equal(t, []uuid.UUID{keptID}, teams.replacedWith)

	require.NotNil(t, teams.updated)
	assert.Equal(t, "South", teams.updated.Name)
}

func TestEditTeamKeepsNameWhenBlank(t *testing.T) {
	teamID := uuid.New()
	svc, _, teams, _ := newTeamServiceFixture(&crmauth.Team{ID: teamID, Name: "North"})

	_, err := svc.EditTeam(context.Background(), teamID, crmauth.EditTeamInput{})
	require.NoError(t, err)

	require.NotNil(t, teams.updated)
	assert.Equal(t, "North", teams.updated.Name)
}

func TestDeleteTeamDemotesDepartingLead(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	leadID := uuid.New()

	svc, users, teams, roleTable := newTeamServiceFixture(&crmauth.Team{
		ID:     teamID,
		Name:   "North",
		LeadID: &leadID,
	})

	require.NoError(t, svc.DeleteTeam(ctx, teamID))

	assert.Equal(t, roleTable[crmauth.RoleSalesRepresentative].ID, users.roleChanges[leadID])
	assert.Equal(t, []uuid.UUID{teamID}, teams.softDeleted)
}

func TestDeleteTeamWithoutLead(t *testing.T) {
	teamID := uuid.New()
	svc, users, teams, _ := newTeamServiceFixture(&crmauth.Team{ID: teamID, Name: "North"})

	require.NoError(t, svc.DeleteTeam(context.Background(), teamID))

	assert.Empty(t, users.roleChanges)
	assert.Equal(t, []uuid.UUID{teamID}, teams.softDeleted)
}

func TestDeleteTeamUnknownTeam(t *testing.T) {
	svc, _, teams, _ := newTeamServiceFixture(nil)

	err := svc.DeleteTeam(context.Background(), uuid.New())
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, crmauth.TextCodeTeamNotFound, richErr.TextCode)
	assert.Empty(t, teams.softDeleted)
}
