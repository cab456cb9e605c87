package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/pkg/errors"
)

// Graph is the read surface of the relationship graph the evaluator
// consults. Edges run patient (source) to doctor (target); only active
// edges grant access.
type Graph interface {
	HasActiveEdge(ctx context.Context, sourceID, targetID uuid.UUID) (bool, error)
	GetPerson(ctx context.Context, id uuid.UUID) (*model.Person, error)
}

// Evaluator builds the scope predicate applied to every clinical
// query. Predicate construction is pure; only the connectivity helpers
// touch the graph.
type Evaluator struct {
	graph Graph
	conns *cache.Cache
}

func NewEvaluator(graph Graph) *Evaluator {
	return &Evaluator{
		graph: graph,
		conns: cache.New(30*time.Second, 5*time.Minute),
	}
}

// Policy is the scope predicate for one requester/partner pair. It has
// two equivalent forms: a parameterized SQL fragment for the stores,
// and an in-process match against a single row.
type Policy struct {
	requester model.Requester
	partner   *uuid.UUID
	graph     Graph
}

// Scope validates the requester and returns its policy. A missing
// requester is an authorization failure, never see-everything.
func (e *Evaluator) Scope(requester *model.Requester, partner *uuid.UUID) (*Policy, error) {
	if requester == nil {
		return nil, errors.Unauthorized("requester required")
	}
	return &Policy{
		requester: *requester,
		partner:   partner,
		graph:     e.graph,
	}, nil
}

// SQL renders the predicate as a WHERE fragment over the given owner
// and creator columns. argIndex is the 1-based index of the first
// placeholder; returned args line up with the placeholders emitted.
func (p *Policy) SQL(ownerCol, creatorCol string, argIndex int) (string, []interface{}) {
	if p.requester.Role == model.RolePatient {
		frag := fmt.Sprintf("%s = $%d", ownerCol, argIndex)
		args := []interface{}{p.requester.ID}
		if p.partner != nil {
			frag += fmt.Sprintf(" AND %s = $%d", creatorCol, argIndex+1)
			args = append(args, *p.partner)
		}
		return frag, args
	}

	// Doctors and admins see a row only through an active edge from
	// the row's owner or creator. Edges whose status is not active
	// grant nothing.
	frag := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM relationships r WHERE r.target_id = $%d AND r.status = 'active' AND (r.source_id = %s OR r.source_id = %s)",
		argIndex, ownerCol, creatorCol,
	)
	args := []interface{}{p.requester.ID}
	if p.partner != nil {
		frag += fmt.Sprintf(" AND r.source_id = $%d", argIndex+1)
		args = append(args, *p.partner)
	}
	frag += ")"
	return frag, args
}

// Matches evaluates the predicate against a single row's owner and
// creator.
func (p *Policy) Matches(ctx context.Context, ownerID, creatorID uuid.UUID) (bool, error) {
	if p.requester.Role == model.RolePatient {
		if ownerID != p.requester.ID {
			return false, nil
		}
		if p.partner != nil && creatorID != *p.partner {
			return false, nil
		}
		return true, nil
	}

	sources := []uuid.UUID{ownerID}
	if creatorID != ownerID {
		sources = append(sources, creatorID)
	}
	for _, src := range sources {
		if p.partner != nil && src != *p.partner {
			continue
		}
		ok, err := p.graph.HasActiveEdge(ctx, src, p.requester.ID)
		if err != nil {
			return false, fmt.Errorf("failed to check relationship: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// IsConnected reports whether two people may interact: identical ids
// are always connected, otherwise both must be active people joined by
// an active relationship in either direction. Results are cached
// briefly.
func (e *Evaluator) IsConnected(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if a == b {
		return true, nil
	}

	key := a.String() + "|" + b.String()
	if v, ok := e.conns.Get(key); ok {
		return v.(bool), nil
	}

	connected, err := e.isConnected(ctx, a, b)
	if err != nil {
		return false, err
	}
	e.conns.SetDefault(key, connected)
	return connected, nil
}

// InvalidateConnection drops the cached connectivity for a pair, in
// both orders. Called when an edge is removed so revoked access does
// not linger for the cache TTL.
func (e *Evaluator) InvalidateConnection(a, b uuid.UUID) {
	e.conns.Delete(a.String() + "|" + b.String())
	e.conns.Delete(b.String() + "|" + a.String())
}

func (e *Evaluator) isConnected(ctx context.Context, a, b uuid.UUID) (bool, error) {
	for _, id := range []uuid.UUID{a, b} {
		person, err := e.graph.GetPerson(ctx, id)
		if err != nil {
			return false, fmt.Errorf("failed to get person: %w", err)
		}
		if person.Status != model.PersonStatusActive {
			return false, nil
		}
	}

	ok, err := e.graph.HasActiveEdge(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("failed to check relationship: %w", err)
	}
	if ok {
		return true, nil
	}
	return e.graph.HasActiveEdge(ctx, b, a)
}
