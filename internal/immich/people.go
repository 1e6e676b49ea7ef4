package immich

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/kozaktomas/photo-migrate/internal/executor"
)

type person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type peopleResponse struct {
	People []person `json:"people"`
}

type personUpdate struct {
	Name string `json:"name"`
}

// RenameCluster implements executor.Client. Immich has no concept of
// "cluster" distinct from person: a face cluster with no assigned name is
// already a person record with an empty Name, so renaming a cluster is a
// person-name PUT.
func (c *Client) RenameCluster(ctx context.Context, clusterID, name string) error {
	existing, err := doGetJSON[person](ctx, c, "people/"+clusterID)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.NotFound() {
			return executor.NewClientError(executor.ErrNotFound, "cluster %s no longer exists", clusterID)
		}
		return fmt.Errorf("looking up cluster %s: %w", clusterID, err)
	}
	if existing.Name != "" {
		return executor.NewClientError(executor.ErrAlreadyNamed, "cluster %s already named %q", clusterID, existing.Name)
	}

	_, err = doPutJSON[person](ctx, c, "people/"+clusterID, personUpdate{Name: name})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.NotFound() {
			return executor.NewClientError(executor.ErrNotFound, "cluster %s no longer exists", clusterID)
		}
		return fmt.Errorf("renaming cluster %s: %w", clusterID, err)
	}
	return nil
}

// FindPersonByName implements executor.Client.
func (c *Client) FindPersonByName(ctx context.Context, name string) (string, error) {
	resp, err := doGetJSON[peopleResponse](ctx, c, fmt.Sprintf("people?name=%s", url.QueryEscape(name)))
	if err != nil {
		return "", fmt.Errorf("searching for person %q: %w", name, err)
	}
	for _, p := range resp.People {
		if p.Name == name {
			return p.ID, nil
		}
	}
	return "", nil
}

// CreatePerson implements executor.Client.
func (c *Client) CreatePerson(ctx context.Context, name string) (string, error) {
	created, err := doPostJSON[person](ctx, c, "people", personUpdate{Name: name})
	if err != nil {
		return "", fmt.Errorf("creating person %q: %w", name, err)
	}
	return created.ID, nil
}
