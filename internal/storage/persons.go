package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/model"
)

// CreatePerson persists a named party. Names are unique ignoring case.
func (s *SQLiteStorage) CreatePerson(ctx context.Context, person *model.Person) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePerson(person); err != nil {
		return err
	}
	return createPersonIn(ctx, s.db, person)
}

func createPersonIn(ctx context.Context, q querier, person *model.Person) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO persons (id, name, is_self)
		VALUES (?, ?, ?)`,
		person.ID, person.Name, person.Self)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// GetPersonByName looks a person up by name, case-insensitively.
func (s *SQLiteStorage) GetPersonByName(ctx context.Context, name string) (*model.Person, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getPersonByNameIn(ctx, s.db, name)
}

func getPersonByNameIn(ctx context.Context, q querier, name string) (*model.Person, error) {
	var person model.Person
	err := q.QueryRowContext(ctx, `
		SELECT id, name, is_self
		FROM persons
		WHERE name = ? COLLATE NOCASE`, name).
		Scan(&person.ID, &person.Name, &person.Self)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query person: %w", err)
	}
	return &person, nil
}

// ListPersons returns all persons, the self person first.
func (s *SQLiteStorage) ListPersons(ctx context.Context) ([]model.Person, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listPersonsIn(ctx, s.db)
}

func listPersonsIn(ctx context.Context, q querier) ([]model.Person, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, is_self
		FROM persons
		ORDER BY is_self DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var persons []model.Person
	for rows.Next() {
		var person model.Person
		if err := rows.Scan(&person.ID, &person.Name, &person.Self); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating persons: %w", err)
	}
	return persons, nil
}
