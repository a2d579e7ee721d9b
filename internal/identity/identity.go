// Package identity defines the external collaborators the messaging core
// depends on but does not own: the identity store that resolves user ids
// to profiles, and the relationship authority that decides whether two
// principals may converse at all.
package identity

import (
	"context"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/repository"
	"gorm.io/gorm"
)

// Resolver looks up display metadata for a user id. A nil user with a
// nil error is never returned; missing users surface as an error the
// caller may choose to tolerate.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*models.User, error)
}

// RelationshipChecker answers whether two users are allowed to hold a
// direct conversation. Relationship management itself (friendships,
// blocks) lives outside this service.
type RelationshipChecker interface {
	MayConverse(ctx context.Context, userA, userB string) (bool, error)
}

// RepoResolver resolves users from the local reference copy of the
// identity store.
type RepoResolver struct {
	users repository.UserRepositoryInterface
}

func NewRepoResolver(users repository.UserRepositoryInterface) *RepoResolver {
	return &RepoResolver{users: users}
}

func (r *RepoResolver) Resolve(ctx context.Context, id string) (*models.User, error) {
	return r.users.FindByID(id)
}

// OpenRelationships permits every pair whose two sides both resolve.
// Deployments with a real friendship service substitute their own
// checker at the composition root.
type OpenRelationships struct {
	users repository.UserRepositoryInterface
}

func NewOpenRelationships(users repository.UserRepositoryInterface) *OpenRelationships {
	return &OpenRelationships{users: users}
}

func (o *OpenRelationships) MayConverse(ctx context.Context, userA, userB string) (bool, error) {
	for _, id := range []string{userA, userB} {
		if _, err := o.users.FindByID(id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}
