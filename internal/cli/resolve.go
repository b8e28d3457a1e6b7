package cli

import (
	"context"
	"fmt"
	"strings"

	"customerforge/internal/entity"
	"customerforge/internal/repository"

	"github.com/google/uuid"
)

// resolveCustomer accepts a full id, an id prefix, an email, or a name
// fragment, and resolves it to exactly one customer.
func resolveCustomer(ctx context.Context, repo repository.CustomerRepository, term string) (*entity.Customer, error) {
	if id, err := uuid.Parse(term); err == nil {
		customer, err := repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, fmt.Errorf("no customer with id %s", term)
		}
		return customer, nil
	}

	if strings.Contains(term, "@") {
		customer, err := repo.FindByEmail(ctx, term)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, fmt.Errorf("no customer with email %s", term)
		}
		return customer, nil
	}

	customers, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []entity.Customer
	lower := strings.ToLower(term)
	for _, c := range customers {
		if strings.HasPrefix(c.ID.String(), lower) ||
			strings.Contains(strings.ToLower(c.FullName), lower) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no customer matches %q", term)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d customers, be more specific", term, len(matches))
	}
}
