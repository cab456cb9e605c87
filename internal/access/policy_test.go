package access

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/pkg/errors"
)

type fakeGraph struct {
	// edges maps "source|target" to true for active edges.
	edges   map[string]bool
	people  map[uuid.UUID]*model.Person
	queries int
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		edges:  make(map[string]bool),
		people: make(map[uuid.UUID]*model.Person),
	}
}

func (g *fakeGraph) addEdge(source, target uuid.UUID) {
	g.edges[source.String()+"|"+target.String()] = true
}

func (g *fakeGraph) addPerson(id uuid.UUID, status model.PersonStatus) {
	g.people[id] = &model.Person{ID: id, Status: status}
}

func (g *fakeGraph) HasActiveEdge(ctx context.Context, sourceID, targetID uuid.UUID) (bool, error) {
	g.queries++
	return g.edges[sourceID.String()+"|"+targetID.String()], nil
}

func (g *fakeGraph) GetPerson(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	p, ok := g.people[id]
	if !ok {
		return nil, fmt.Errorf("person not found")
	}
	return p, nil
}

func TestScopeRequiresRequester(t *testing.T) {
	eval := NewEvaluator(newFakeGraph())

	policy, err := eval.Scope(nil, nil)
	assert.Nil(t, policy)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
}

func TestPatientMatchesOwnRowsOnly(t *testing.T) {
	eval := NewEvaluator(newFakeGraph())
	patient := uuid.New()
	other := uuid.New()
	doctor := uuid.New()

	policy, err := eval.Scope(&model.Requester{ID: patient, Role: model.RolePatient}, nil)
	require.NoError(t, err)

	ok, err := policy.Matches(context.Background(), patient, doctor)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.Matches(context.Background(), other, doctor)
	require.NoError(t, err)
	assert.False(t, ok, "a patient must never see rows owned by someone else")
}

func TestPatientPartnerNarrowsToCreator(t *testing.T) {
	eval := NewEvaluator(newFakeGraph())
	patient := uuid.New()
	partner := uuid.New()
	otherDoctor := uuid.New()

	policy, err := eval.Scope(&model.Requester{ID: patient, Role: model.RolePatient}, &partner)
	require.NoError(t, err)

	ok, err := policy.Matches(context.Background(), patient, partner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.Matches(context.Background(), patient, otherDoctor)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDoctorMatchesThroughActiveEdge(t *testing.T) {
	graph := newFakeGraph()
	doctor := uuid.New()
	patient := uuid.New()
	stranger := uuid.New()
	graph.addEdge(patient, doctor)

	eval := NewEvaluator(graph)
	policy, err := eval.Scope(&model.Requester{ID: doctor, Role: model.RoleDoctor}, nil)
	require.NoError(t, err)

	ok, err := policy.Matches(context.Background(), patient, patient)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.Matches(context.Background(), stranger, stranger)
	require.NoError(t, err)
	assert.False(t, ok, "no edge, no access")
}

func TestDoctorMatchesThroughCreatorEdge(t *testing.T) {
	graph := newFakeGraph()
	doctor := uuid.New()
	owner := uuid.New()
	creator := uuid.New()
	graph.addEdge(creator, doctor)

	eval := NewEvaluator(graph)
	policy, err := eval.Scope(&model.Requester{ID: doctor, Role: model.RoleDoctor}, nil)
	require.NoError(t, err)

	ok, err := policy.Matches(context.Background(), owner, creator)
	require.NoError(t, err)
	assert.True(t, ok, "an edge from the creator grants access too")
}

func TestDoctorPartnerNarrowsSources(t *testing.T) {
	graph := newFakeGraph()
	doctor := uuid.New()
	owner := uuid.New()
	creator := uuid.New()
	graph.addEdge(owner, doctor)
	graph.addEdge(creator, doctor)

	eval := NewEvaluator(graph)
	policy, err := eval.Scope(&model.Requester{ID: doctor, Role: model.RoleDoctor}, &creator)
	require.NoError(t, err)

	ok, err := policy.Matches(context.Background(), owner, creator)
	require.NoError(t, err)
	assert.True(t, ok)

	// Partner set to an unrelated id excludes both sources.
	unrelated := uuid.New()
	policy, err = eval.Scope(&model.Requester{ID: doctor, Role: model.RoleDoctor}, &unrelated)
	require.NoError(t, err)

	ok, err = policy.Matches(context.Background(), owner, creator)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminScopedLikeDoctor(t *testing.T) {
	graph := newFakeGraph()
	admin := uuid.New()
	patient := uuid.New()
	stranger := uuid.New()
	graph.addEdge(patient, admin)

	eval := NewEvaluator(graph)
	policy, err := eval.Scope(&model.Requester{ID: admin, Role: model.RoleAdmin}, nil)
	require.NoError(t, err)

	ok, err := policy.Matches(context.Background(), patient, patient)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.Matches(context.Background(), stranger, stranger)
	require.NoError(t, err)
	assert.False(t, ok, "admins get no bypass")
}

func TestPatientSQLFragment(t *testing.T) {
	eval := NewEvaluator(newFakeGraph())
	patient := uuid.New()

	policy, err := eval.Scope(&model.Requester{ID: patient, Role: model.RolePatient}, nil)
	require.NoError(t, err)

	frag, args := policy.SQL("owner_id", "creator_id", 1)
	assert.Equal(t, "owner_id = $1", frag)
	assert.Equal(t, []interface{}{patient}, args)

	partner := uuid.New()
	policy, err = eval.Scope(&model.Requester{ID: patient, Role: model.RolePatient}, &partner)
	require.NoError(t, err)

	frag, args = policy.SQL("owner_id", "creator_id", 3)
	assert.Equal(t, "owner_id = $3 AND creator_id = $4", frag)
	assert.Equal(t, []interface{}{patient, partner}, args)
}

func TestDoctorSQLFragment(t *testing.T) {
	eval := NewEvaluator(newFakeGraph())
	doctor := uuid.New()

	policy, err := eval.Scope(&model.Requester{ID: doctor, Role: model.RoleDoctor}, nil)
	require.NoError(t, err)

	frag, args := policy.SQL("owner_id", "creator_id", 1)
	assert.Equal(t,
		"EXISTS (SELECT 1 FROM relationships r WHERE r.target_id = $1 AND r.status = 'active' AND (r.source_id = owner_id OR r.source_id = creator_id))",
		frag)
	assert.Equal(t, []interface{}{doctor}, args)

	partner := uuid.New()
	policy, err = eval.Scope(&model.Requester{ID: doctor, Role: model.RoleDoctor}, &partner)
	require.NoError(t, err)

	frag, args = policy.SQL("owner_id", "creator_id", 2)
	assert.Equal(t,
		"EXISTS (SELECT 1 FROM relationships r WHERE r.target_id = $2 AND r.status = 'active' AND (r.source_id = owner_id OR r.source_id = creator_id) AND r.source_id = $3)",
		frag)
	assert.Equal(t, []interface{}{doctor, partner}, args)
}

func TestIsConnected(t *testing.T) {
	graph := newFakeGraph()
	patient := uuid.New()
	doctor := uuid.New()
	inactive := uuid.New()
	graph.addPerson(patient, model.PersonStatusActive)
	graph.addPerson(doctor, model.PersonStatusActive)
	graph.addPerson(inactive, model.PersonStatusInactive)
	graph.addEdge(patient, doctor)

	eval := NewEvaluator(graph)

	ok, err := eval.IsConnected(context.Background(), patient, doctor)
	require.NoError(t, err)
	assert.True(t, ok)

	// Direction does not matter.
	ok, err = eval.IsConnected(context.Background(), doctor, patient)
	require.NoError(t, err)
	assert.True(t, ok)

	// Self is always connected.
	ok, err = eval.IsConnected(context.Background(), patient, patient)
	require.NoError(t, err)
	assert.True(t, ok)

	// An inactive person is never connected.
	ok, err = eval.IsConnected(context.Background(), patient, inactive)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsConnectedCachesResult(t *testing.T) {
	graph := newFakeGraph()
	patient := uuid.New()
	doctor := uuid.New()
	graph.addPerson(patient, model.PersonStatusActive)
	graph.addPerson(doctor, model.PersonStatusActive)
	graph.addEdge(patient, doctor)

	eval := NewEvaluator(graph)

	_, err := eval.IsConnected(context.Background(), patient, doctor)
	require.NoError(t, err)
	queried := graph.queries

	_, err = eval.IsConnected(context.Background(), patient, doctor)
	require.NoError(t, err)
	assert.Equal(t, queried, graph.queries, "second lookup should hit the cache")
}

func TestInvalidateConnectionDropsCachedResult(t *testing.T) {
	graph := newFakeGraph()
	patient := uuid.New()
	doctor := uuid.New()
	graph.addPerson(patient, model.PersonStatusActive)
	graph.addPerson(doctor, model.PersonStatusActive)
	graph.addEdge(patient, doctor)

	eval := NewEvaluator(graph)

	ok, err := eval.IsConnected(context.Background(), patient, doctor)
	require.NoError(t, err)
	require.True(t, ok)

	// Edge removed, but the cached answer still says connected.
	delete(graph.edges, patient.String()+"|"+doctor.String())
	ok, err = eval.IsConnected(context.Background(), patient, doctor)
	require.NoError(t, err)
	assert.True(t, ok)

	// Invalidation takes either order and forces a fresh lookup.
	eval.InvalidateConnection(doctor, patient)
	ok, err = eval.IsConnected(context.Background(), patient, doctor)
	require.NoError(t, err)
	assert.False(t, ok)
}
