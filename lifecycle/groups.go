// ABOUTME: Contact group operations
// ABOUTME: Deleting a group removes it from every member contact
package lifecycle

import (
	"context"
	"strings"

	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/models"
)

func (s *Service) CreateGroup(ctx context.Context, userID string, in models.GroupInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return nil, err
	}

	g := &models.Group{
		UserID:         userID,
		Name:           in.Name,
		Description:    in.Description,
		Color:          in.Color,
		ProfilePicture: in.ProfilePicture,
	}
	if err := s.store.Groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// GetGroup returns the group with its member contacts loaded.
func (s *Service) GetGroup(ctx context.Context, userID, id string) (*models.Group, error) {
	gid, err := parseID(id, "group")
	if err != nil {
		return nil, err
	}
	g, err := s.store.Groups.Get(ctx, userID, gid)
	if err != nil {
		return nil, fromStore(err, "group")
	}
	members, err := s.store.Contacts.ListByGroup(ctx, userID, gid)
	if err != nil {
		return nil, err
	}
	g.Contacts = members
	g.ContactCount = len(members)
	return g, nil
}

func (s *Service) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	return s.store.Groups.List(ctx, userID)
}

func (s *Service) UpdateGroup(ctx context.Context, userID, id string, upd models.GroupUpdate) (*models.Group, error) {
	gid, err := parseID(id, "group")
	if err != nil {
		return nil, err
	}
	if upd.Name.Cleared() || (upd.Name.IsSet() && strings.TrimSpace(upd.Name.Value()) == "") {
		return nil, invalid("name is required")
	}

	var out *models.Group
	err = s.store.InTx(ctx, func(tx *db.Store) error {
		g, err := tx.Groups.Get(ctx, userID, gid)
		if err != nil {
			return err
		}
		upd.Name.Apply(&g.Name)
		g.Name = strings.TrimSpace(g.Name)
		upd.Description.Apply(&g.Description)
		upd.Color.Apply(&g.Color)
		upd.ProfilePicture.Apply(&g.ProfilePicture)
		if err := tx.Groups.Update(ctx, g); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, fromStore(err, "group")
	}
	return out, nil
}

func (s *Service) DeleteGroup(ctx context.Context, userID, id string) error {
	gid, err := parseID(id, "group")
	if err != nil {
		return err
	}
	if err := s.store.Groups.Delete(ctx, userID, gid); err != nil {
		return fromStore(err, "group")
	}
	s.logger.Info("group deleted", "group_id", gid, "user_id", userID)
	return nil
}
