package crmauth_test

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	crmauth "github.com/skycrm/go-crm-auth"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockConfig implements crmauth.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSigningMethod() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetSigningMethod").Return("HS256")
	mockConfig.On("GetContextKey").Return("session")
	mockConfig.On("GetTokenExpiration").Return(12)
	mockConfig.On("GetIssuer").Return("test-issuer")
	return mockConfig
}

// MockIdentityProvider implements crmauth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (crmauth.Identity, error) {
	args := m.Called(ctx, email, password)
	if v := args.Get(0); v != nil {
		return v.(crmauth.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (crmauth.Identity, error) {
	args := m.Called(ctx, identifier)
	if v := args.Get(0); v != nil {
		return v.(crmauth.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSessionTracker implements crmauth.SessionTracker
type MockSessionTracker struct {
	mock.Mock
}

func (m *MockSessionTracker) TrackLogout(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessionTracker) TrackHeartbeat(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockTeamDirectory implements crmauth.TeamDirectory
type MockTeamDirectory struct {
	mock.Mock
}

func (m *MockTeamDirectory) FindByManager(ctx context.Context, userID uuid.UUID) ([]*crmauth.Team, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*crmauth.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamDirectory) FindByLead(ctx context.Context, userID uuid.UUID) ([]*crmauth.Team, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*crmauth.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamDirectory) FindByMember(ctx context.Context, userID uuid.UUID) ([]*crmauth.Team, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*crmauth.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamDirectory) ReassignManager(ctx context.Context, teamID, managerID uuid.UUID) error {
	args := m.Called(ctx, teamID, managerID)
	return args.Error(0)
}

func (m *MockTeamDirectory) ClearLead(ctx context.Context, teamID uuid.UUID) error {
	args := m.Called(ctx, teamID)
	return args.Error(0)
}

func (m *MockTeamDirectory) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

// MockAdminLocator implements crmauth.AdminLocator
type MockAdminLocator struct {
	mock.Mock
}

func (m *MockAdminLocator) FirstWithRole(ctx context.Context, role crmauth.RoleName) (*crmauth.User, error) {
	args := m.Called(ctx, role)
	if v := args.Get(0); v != nil {
		return v.(*crmauth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMailer implements crmauth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg crmauth.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// TestIdentity is a simple implementation of the Identity interface for testing
type TestIdentity struct {
	id     string
	name   string
	email  string
	roleID string
	role   crmauth.RoleName
}

func (t TestIdentity) ID() string             { return t.id }
func (t TestIdentity) Name() string           { return t.name }
func (t TestIdentity) Email() string          { return t.email }
func (t TestIdentity) RoleID() string         { return t.roleID }
func (t TestIdentity) Role() crmauth.RoleName { return t.role }

func newTestIdentity() TestIdentity {
	return TestIdentity{
		id:     uuid.NewString(),
		name:   "Ada Vega",
		email:  "ada@example.com",
		roleID: uuid.NewString(),
		role:   crmauth.RoleSalesManager,
	}
}

// captureLogger records log lines so tests can assert on them
type captureLogger struct {
	entries []string
}

func (l *captureLogger) Debug(format string, args ...any) { l.entries = append(l.entries, format) }
func (l *captureLogger) Info(format string, args ...any)  { l.entries = append(l.entries, format) }
func (l *captureLogger) Warn(format string, args ...any)  { l.entries = append(l.entries, format) }
func (l *captureLogger) Error(format string, args ...any) { l.entries = append(l.entries, format) }

// The fake repositories below embed the store interfaces and override only
// what a test exercises. Calling anything else panics through the nil
// embedded interface, which keeps accidental coverage honest.

type fakeUsers struct {
	crmauth.Users
	byIdentifier map[string]*crmauth.User
	passwords    map[uuid.UUID]string
	roleChanges  map[uuid.UUID]uuid.UUID
	setRoleErr   error
	changeErr    error
}

func (f *fakeUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*crmauth.User, error) {
	if user, ok := f.byIdentifier[identifier]; ok {
		return user, nil
	}
	return nil, goerrors.New("user not found", goerrors.CategoryNotFound)
}

func (f *fakeUsers) ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	if f.changeErr != nil {
		return f.changeErr
	}
	if f.passwords == nil {
		f.passwords = map[uuid.UUID]string{}
	}
	f.passwords[id] = passwordHash
	return nil
}

func (f *fakeUsers) SetRole(ctx context.Context, id, roleID uuid.UUID) error {
	if f.setRoleErr != nil {
		return f.setRoleErr
	}
	if f.roleChanges == nil {
		f.roleChanges = map[uuid.UUID]uuid.UUID{}
	}
	f.roleChanges[id] = roleID
	return nil
}

type fakeRoles struct {
	crmauth.Roles
	byName map[crmauth.RoleName]*crmauth.Role
}

func (f *fakeRoles) GetByName(ctx context.Context, name crmauth.RoleName) (*crmauth.Role, error) {
	if role, ok := f.byName[name]; ok {
		return role, nil
	}
	return nil, goerrors.New("role not found", goerrors.CategoryNotFound)
}

func newRoleTable() map[crmauth.RoleName]*crmauth.Role {
	return map[crmauth.RoleName]*crmauth.Role{
		crmauth.RoleAdmin:               {ID: uuid.New(), Name: crmauth.RoleAdmin},
		crmauth.RoleSalesManager:        {ID: uuid.New(), Name: crmauth.RoleSalesManager},
		crmauth.RoleSalesTeamLead:       {ID: uuid.New(), Name: crmauth.RoleSalesTeamLead},
		crmauth.RoleSalesRepresentative: {ID: uuid.New(), Name: crmauth.RoleSalesRepresentative},
	}
}

type fakeTeams struct {
	crmauth.Teams
	team *crmauth.Team

	leadSet      []*uuid.UUID
	leadCleared  bool
	membersAdded []uuid.UUID
	replacedWith []uuid.UUID
	softDeleted  []uuid.UUID
	updated      *crmauth.Team
}

func (f *fakeTeams) GetWithRelations(ctx context.Context, id uuid.UUID) (*crmauth.Team, error) {
	if f.team == nil || f.team.ID != id {
		return nil, goerrors.New("team not found", goerrors.CategoryNotFound)
	}
	return f.team, nil
}

func (f *fakeTeams) SetLead(ctx context.Context, teamID uuid.UUID, leadID *uuid.UUID) error {
	f.leadSet = append(f.leadSet, leadID)
	return nil
}

func (f *fakeTeams) ClearLead(ctx context.Context, teamID uuid.UUID) error {
	f.leadCleared = true
	return nil
}

func (f *fakeTeams) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	f.membersAdded = append(f.membersAdded, userID)
	return nil
}

func (f *fakeTeams) ReplaceMembers(ctx context.Context, teamID uuid.UUID, memberIDs []uuid.UUID) error {
	f.replacedWith = memberIDs
	return nil
}

func (f *fakeTeams) SoftDelete(ctx context.Context, teamID uuid.UUID) error {
	f.softDeleted = append(f.softDeleted, teamID)
	return nil
}

func (f *fakeTeams) Update(ctx context.Context, record *crmauth.Team, criteria ...repository.UpdateCriteria) (*crmauth.Team, error) {
	f.updated = record
	return record, nil
}

type fakeRepoManager struct {
	users crmauth.Users
	roles crmauth.Roles
	teams crmauth.Teams
}

func (f *fakeRepoManager) Validate() error { return nil }

func (f *fakeRepoManager) MustValidate() {}

func (f *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepoManager) Users() crmauth.Users { return f.users }

func (f *fakeRepoManager) Roles() crmauth.Roles { return f.roles }

func (f *fakeRepoManager) Teams() crmauth.Teams { return f.teams }
