package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
)

// Graph adapts the relationship and person repositories into the read
// surface the access evaluator consults.
type Graph struct {
	rels   repository.RelationshipRepository
	people repository.PersonRepository
}

func NewGraph(rels repository.RelationshipRepository, people repository.PersonRepository) *Graph {
	return &Graph{rels: rels, people: people}
}

func (g *Graph) HasActiveEdge(ctx context.Context, sourceID, targetID uuid.UUID) (bool, error) {
	return g.rels.HasActiveEdge(ctx, sourceID, targetID)
}

func (g *Graph) GetPerson(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	return g.people.Get(ctx, id)
}
