package service

import (
	"context"
	"errors"
	"fmt"

	"bonded.app/memories/internal/entity"
	membershipRepo "bonded.app/memories/internal/modules/membership/repository"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
)

// DisplayName is the name a user goes by inside a group: the membership's
// group-specific username when set, the account username otherwise.
func DisplayName(user entity.User, membership *entity.GroupMembership) string {
	if membership != nil && membership.Username != nil && *membership.Username != "" {
		return *membership.Username
	}
	return user.Username
}

// Member is a group member with its resolved display name.
type Member struct {
	UserID      uuid.UUID
	DisplayName string
	Role        string
}

type MembershipService interface {
	// RequireMember fails with ErrForbidden when the user does not belong to the group.
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) (*entity.GroupMembership, error)
	DisplayNameIn(ctx context.Context, groupID, userID uuid.UUID) (string, error)
	Members(ctx context.Context, groupID uuid.UUID) ([]Member, error)
	GroupExists(ctx context.Context, groupID uuid.UUID) error
}

type membershipService struct {
	repo membershipRepo.MembershipRepository
}

func NewMembershipService(repo membershipRepo.MembershipRepository) MembershipService {
	return &membershipService{repo: repo}
}

func (s *membershipService) RequireMember(ctx context.Context, groupID, userID uuid.UUID) (*entity.GroupMembership, error) {
	m, err := s.repo.FindMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("not a member of this group: %w", apperror.ErrForbidden)
		}
		return nil, err
	}
	return m, nil
}

func (s *membershipService) DisplayNameIn(ctx context.Context, groupID, userID uuid.UUID) (string, error) {
	m, err := s.repo.FindMembership(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	return DisplayName(m.User, m), nil
}

func (s *membershipService) Members(ctx context.Context, groupID uuid.UUID) ([]Member, error) {
	memberships, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(memberships))
	for i := range memberships {
		m := &memberships[i]
		members = append(members, Member{
			UserID:      m.UserID,
			DisplayName: DisplayName(m.User, m),
			Role:        m.Role,
		})
	}
	return members, nil
}

func (s *membershipService) GroupExists(ctx context.Context, groupID uuid.UUID) error {
	_, err := s.repo.FindGroup(ctx, groupID)
	return err
}
