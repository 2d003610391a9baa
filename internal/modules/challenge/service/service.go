package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bonded.app/memories/internal/entity"
	challengeDto "bonded.app/memories/internal/modules/challenge/dto"
	challengeRepo "bonded.app/memories/internal/modules/challenge/repository"
	"bonded.app/memories/pkg/apperror"
	"bonded.app/memories/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier receives completion notifications.
type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

// NameResolver resolves the display name of a user inside a group.
type NameResolver interface {
	DisplayNameIn(ctx context.Context, groupID, userID uuid.UUID) (string, error)
}

type ChallengeService interface {
	Create(ctx context.Context, creatorID, groupID uuid.UUID, req challengeDto.CreateChallengeRequest) (*challengeDto.ChallengeResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Challenge, error)
	// Detail is Get rendered with completion stats.
	Detail(ctx context.Context, id uuid.UUID) (*challengeDto.ChallengeResponse, error)
	List(ctx context.Context, groupID uuid.UUID, currentOnly bool) ([]challengeDto.ChallengeResponse, error)
	// Advance adds delta (> 0) to the user's progress on a current challenge.
	Advance(ctx context.Context, userID, challengeID uuid.UUID, delta int) (*challengeDto.ProgressResponse, error)
	// AdvanceForActivity advances by one every current challenge of the group whose category matches the activity.
	AdvanceForActivity(ctx context.Context, userID, groupID uuid.UUID, kind string, withMedia bool) error
	Progress(ctx context.Context, challengeID, userID uuid.UUID) (*challengeDto.ProgressResponse, error)
	ListProgress(ctx context.Context, challengeID uuid.UUID) ([]challengeDto.ProgressResponse, error)
	ListGroupProgress(ctx context.Context, groupID uuid.UUID) ([]challengeDto.ProgressResponse, error)
	// DeactivateExpired disables challenges whose end date has passed.
	DeactivateExpired(ctx context.Context) (int64, error)
}

type challengeService struct {
	repo     challengeRepo.ChallengeRepository
	names    NameResolver
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewChallengeService(repo challengeRepo.ChallengeRepository, names NameResolver, notifier Notifier, log *zap.Logger) ChallengeService {
	return NewChallengeServiceWithClock(repo, names, notifier, log, func() time.Time { return time.Now().UTC() })
}

func NewChallengeServiceWithClock(repo challengeRepo.ChallengeRepository, names NameResolver, notifier Notifier, log *zap.Logger, now func() time.Time) ChallengeService {
	return &challengeService{
		repo:     repo,
		names:    names,
		notifier: notifier,
		log:      logger.OrNop(log),
		now:      now,
	}
}

func (s *challengeService) Create(ctx context.Context, creatorID, groupID uuid.UUID, req challengeDto.CreateChallengeRequest) (*challengeDto.ChallengeResponse, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("end date must be after start date: %w", apperror.ErrInvalidInput)
	}

	challenge := &entity.Challenge{
		GroupID:       groupID,
		Title:         req.Title,
		Description:   req.Description,
		ChallengeType: req.ChallengeType,
		Category:      req.Category,
		TargetCount:   req.TargetCount,
		StartDate:     req.StartDate.UTC(),
		EndDate:       req.EndDate.UTC(),
		IsActive:      true,
		CreatedByID:   creatorID,
	}
	if req.PointsReward == nil {
		challenge.PointsReward = 10
	} else {
		challenge.PointsReward = *req.PointsReward
	}

	if err := s.repo.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return s.toResponse(ctx, challenge)
}

func (s *challengeService) Get(ctx context.Context, id uuid.UUID) (*entity.Challenge, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *challengeService) Detail(ctx context.Context, id uuid.UUID) (*challengeDto.ChallengeResponse, error) {
	challenge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", id, err)
	}
	return s.toResponse(ctx, challenge)
}

func (s *challengeService) List(ctx context.Context, groupID uuid.UUID, currentOnly bool) ([]challengeDto.ChallengeResponse, error) {
	challenges, err := s.repo.ListByGroup(ctx, groupID, currentOnly, s.now())
	if err != nil {
		return nil, err
	}

	out := make([]challengeDto.ChallengeResponse, 0, len(challenges))
	for i := range challenges {
		resp, err := s.toResponse(ctx, &challenges[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *challengeService) Advance(ctx context.Context, userID, challengeID uuid.UUID, delta int) (*challengeDto.ProgressResponse, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("delta must be positive, got %d: %w", delta, apperror.ErrInvalidInput)
	}

	challenge, err := s.repo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, err)
	}

	progress, err := s.advance(ctx, userID, challenge, delta)
	if err != nil {
		return nil, err
	}
	return s.progressResponse(ctx, challenge, progress), nil
}

func (s *challengeService) advance(ctx context.Context, userID uuid.UUID, challenge *entity.Challenge, delta int) (*entity.ChallengeProgress, error) {
	now := s.now()
	if !challenge.IsCurrent(now) {
		return nil, fmt.Errorf("challenge %s is not running: %w", challenge.ID, apperror.ErrInvalidInput)
	}

	progress, err := s.repo.GetOrCreateProgress(ctx, challenge.ID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	completedNow := ApplyProgress(progress, challenge.TargetCount, delta, now)
	stamped, err := s.repo.SaveProgress(ctx, progress, completedNow)
	if err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}

	if completedNow && !stamped {
		// a concurrent advance stamped completion first, report its timestamp
		if fresh, err := s.repo.FindProgress(ctx, challenge.ID, userID); err == nil {
			progress = fresh
		}
	}
	if stamped {
		s.log.Info("challenge completed",
			zap.String("challenge_id", challenge.ID.String()),
			zap.String("user_id", userID.String()),
		)
		s.notifyCompleted(ctx, challenge, userID)
	}
	return progress, nil
}

func (s *challengeService) notifyCompleted(ctx context.Context, challenge *entity.Challenge, userID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	groupID := challenge.GroupID
	n := &entity.Notification{
		UserID:     userID,
		GroupID:    &groupID,
		EntityID:   challenge.ID,
		EntityType: "challenge",
		Type:       entity.NotificationChallengeCompleted,
		Message:    fmt.Sprintf("You completed %q and earned %d points!", challenge.Title, challenge.PointsReward),
	}
	if err := s.notifier.CreateNotification(ctx, n); err != nil {
		s.log.Warn("challenge completion notification failed",
			zap.String("challenge_id", challenge.ID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func (s *challengeService) AdvanceForActivity(ctx context.Context, userID, groupID uuid.UUID, kind string, withMedia bool) error {
	categories := CategoriesFor(kind, withMedia)
	if len(categories) == 0 {
		return nil
	}

	challenges, err := s.repo.FindCurrent(ctx, groupID, categories, s.now())
	if err != nil {
		return fmt.Errorf("find current challenges: %w", err)
	}

	var errs []error
	for i := range challenges {
		if _, err := s.advance(ctx, userID, &challenges[i], 1); err != nil {
			errs = append(errs, fmt.Errorf("challenge %s: %w", challenges[i].ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *challengeService) Progress(ctx context.Context, challengeID, userID uuid.UUID) (*challengeDto.ProgressResponse, error) {
	challenge, err := s.repo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, err)
	}

	progress, err := s.repo.FindProgress(ctx, challengeID, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		progress = &entity.ChallengeProgress{ChallengeID: challengeID, UserID: userID}
	} else if err != nil {
		return nil, err
	}
	return s.progressResponse(ctx, challenge, progress), nil
}

func (s *challengeService) ListProgress(ctx context.Context, challengeID uuid.UUID) ([]challengeDto.ProgressResponse, error) {
	challenge, err := s.repo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, err)
	}

	rows, err := s.repo.ListProgress(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	out := make([]challengeDto.ProgressResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *s.progressResponse(ctx, challenge, &rows[i]))
	}
	return out, nil
}

func (s *challengeService) ListGroupProgress(ctx context.Context, groupID uuid.UUID) ([]challengeDto.ProgressResponse, error) {
	rows, err := s.repo.ListProgressByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]challengeDto.ProgressResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *s.progressResponse(ctx, &rows[i].Challenge, &rows[i]))
	}
	return out, nil
}

func (s *challengeService) DeactivateExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired challenges: %w", err)
	}
	return n, nil
}

func (s *challengeService) displayName(ctx context.Context, groupID, userID uuid.UUID) string {
	if s.names == nil {
		return ""
	}
	name, err := s.names.DisplayNameIn(ctx, groupID, userID)
	if err != nil {
		// former members keep their rows, they just show without a name
		return ""
	}
	return name
}

func (s *challengeService) toResponse(ctx context.Context, c *entity.Challenge) (*challengeDto.ChallengeResponse, error) {
	completed, err := s.repo.CountCompleted(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.CountMembers(ctx, c.GroupID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &challengeDto.ChallengeResponse{
		ID:              c.ID,
		GroupID:         c.GroupID,
		Title:           c.Title,
		Description:     c.Description,
		ChallengeType:   c.ChallengeType,
		Category:        c.Category,
		TargetCount:     c.TargetCount,
		PointsReward:    c.PointsReward,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		IsActive:        c.IsActive,
		IsCurrent:       c.IsCurrent(now),
		DaysRemaining:   DaysRemaining(c, now),
		CreatorUsername: s.displayName(ctx, c.GroupID, c.CreatedByID),
		ProgressCount:   completed,
		CompletionRate:  completionRate(completed, members),
		CreatedAt:       c.CreatedAt,
	}, nil
}

func completionRate(completed, members int64) float64 {
	if members == 0 {
		return 0
	}
	return Percentage(int(completed), int(members))
}

func (s *challengeService) progressResponse(ctx context.Context, c *entity.Challenge, p *entity.ChallengeProgress) *challengeDto.ProgressResponse {
	return &challengeDto.ProgressResponse{
		ChallengeID:        c.ID,
		ChallengeTitle:     c.Title,
		UserID:             p.UserID,
		Username:           s.displayName(ctx, c.GroupID, p.UserID),
		CurrentCount:       p.CurrentCount,
		TargetCount:        c.TargetCount,
		IsCompleted:        p.IsCompleted,
		CompletedAt:        p.CompletedAt,
		LastActivity:       p.LastActivity,
		ProgressPercentage: Percentage(p.CurrentCount, c.TargetCount),
	}
}
