package service

import (
	"context"
	"strings"

	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/port/database"
)

// PersonService is the minimal person source the scheduler assigns to.
type PersonService struct {
	store database.Store
}

// NewPersonService creates a new PersonService.
func NewPersonService(store database.Store) *PersonService {
	return &PersonService{store: store}
}

// List returns every person ordered by id.
func (s *PersonService) List(ctx context.Context) ([]person.Person, error) {
	return s.store.ListPeople(ctx)
}

// Get returns a person by ID.
func (s *PersonService) Get(ctx context.Context, id int64) (*person.Person, error) {
	return s.store.GetPerson(ctx, id)
}

// Create validates and stores a new person.
func (s *PersonService) Create(ctx context.Context, req person.CreateRequest) (*person.Person, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.TrimSpace(req.Role)
	return s.store.CreatePerson(ctx, req)
}
